// Package normalize provides the text-normalization primitives shared by
// every extractor and the content-hash used for change detection: Unicode
// compatibility folding, whitespace collapse, code-point clipping, and a
// deterministic hash over the hashed subset of a Page record.
package normalize

import (
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormWS applies NFKC compatibility normalization and collapses every run of
// whitespace (including full-width spaces once NFKC folds them) into a
// single ASCII space, trimming the result. An empty input yields "".
func NormWS(s string) string {
	if s == "" {
		return ""
	}
	folded := norm.NFKC.String(s)
	collapsed := whitespaceRun.ReplaceAllString(folded, " ")
	return strings.TrimSpace(collapsed)
}

// Clip returns s unchanged if it has at most limit code points, otherwise
// the first limit code points. limit defaults to 800 when <= 0.
func Clip(s string, limit int) string {
	if limit <= 0 {
		limit = 800
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// ContentHash computes the MD5 hex digest of the pipe-joined hashed fields
// (title, summary, rate, cap, target, cost_items, deadline), with missing
// fields rendered as empty strings. Deterministic and stable across runs —
// this is the sole input to Page.ContentHash and therefore to the
// upsert-with-change-detection invariant.
func ContentHash(fields [7]string) string {
	joined := strings.Join(fields[:], "||")
	sum := md5.Sum([]byte(joined)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
