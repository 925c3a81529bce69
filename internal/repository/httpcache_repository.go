package repository

import (
	"context"

	"catchup-feed/internal/domain/entity"
)

// HTTPCacheRepository persists conditional-GET freshness metadata keyed by
// URL.
type HTTPCacheRepository interface {
	// Upsert writes etag/last_modified/status, always advancing
	// LastCheckedAt. LastChangedAt only advances when etag or
	// lastModified differs from the stored values; otherwise it is
	// preserved, per the cache-monotonicity invariant (spec.md §3).
	Upsert(ctx context.Context, url string, etag, lastModified *string, status int) error

	// Get returns the stored entry, or nil if the URL has never been
	// checked.
	Get(ctx context.Context, url string) (*entity.HTTPCacheEntry, error)
}
