package discovery

import "context"

// Provider is the external discovery adapter contract: given a query and
// the allow-list, return candidate URLs. Implementations must degrade to
// an empty result (never propagate an error to the caller) so a missing
// or failing provider just disables the discovery lane.
type Provider interface {
	Discover(ctx context.Context, query string, allow AllowList) []string
}

// TextExtractor is the deep-research fallback contract used by the
// backfill ladder (C9): best-effort readable text for a URL, bounded to
// maxChars. The second return reports whether any text was found.
type TextExtractor interface {
	FetchText(ctx context.Context, url string, maxChars int) (string, bool)
}
