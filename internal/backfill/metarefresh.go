package backfill

import (
	"bytes"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var metaRefreshURLRe = regexp.MustCompile(`(?i)url\s*=\s*['"]?([^'">]+)`)

// detectMetaRefreshPDF looks for a <meta http-equiv="refresh" ...> pointing
// at a PDF and, if found, returns the resolved absolute target URL
// (spec.md §4.9 step 3).
func detectMetaRefreshPDF(baseURL string, htmlBytes []byte) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return "", false
	}

	var target string
	doc.Find(`meta[http-equiv]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if httpEquivLower(s) != "refresh" {
			return true
		}
		content, _ := s.Attr("content")
		m := metaRefreshURLRe.FindStringSubmatch(content)
		if m == nil {
			return true
		}
		target = m[1]
		return false
	})
	if target == "" {
		return "", false
	}
	if !looksLikePDF(target) {
		return "", false
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(target)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

func httpEquivLower(s *goquery.Selection) string {
	v, _ := s.Attr("http-equiv")
	out := make([]byte, 0, len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

func looksLikePDF(target string) bool {
	lower := make([]byte, 0, len(target))
	for i := 0; i < len(target); i++ {
		c := target[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		lower = append(lower, c)
	}
	return bytes.Contains(lower, []byte(".pdf"))
}
