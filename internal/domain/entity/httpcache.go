package entity

import "time"

// HTTPCacheEntry holds freshness metadata for one URL: the conditional-GET
// validators (ETag / Last-Modified) and the status of the last check.
//
// Invariant: LastChangedAt advances only when ETag or LastModified actually
// changes between upserts; otherwise the previous value is preserved. See
// postgres.HTTPCacheRepo.Upsert.
type HTTPCacheEntry struct {
	URL            string
	ETag           *string
	LastModified   *string
	LastStatus     int
	LastCheckedAt  time.Time
	LastChangedAt  time.Time
}
