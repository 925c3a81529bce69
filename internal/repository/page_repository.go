package repository

import (
	"context"

	"catchup-feed/internal/domain/entity"
)

// PageRepository persists the URL-keyed page store with content-hash driven
// change detection.
type PageRepository interface {
	// Upsert computes the content hash and writes the record. It returns
	// false ("unchanged") without advancing LastFetched when an existing
	// row already has the same hash, true otherwise.
	Upsert(ctx context.Context, page *entity.Page) (changed bool, err error)

	// Query implements the read-side contract consumed by the recommend
	// path (spec.md §4.11): when q is non-nil, filter on
	// tokens @@ plainto_tsquery('simple', *q); otherwise return the most
	// recently fetched pages, newest first, bounded by limit.
	Query(ctx context.Context, q *string, limit int) ([]*entity.Page, error)

	// Deficient returns up to limit pages whose title is the untitled
	// sentinel or whose summary is empty, oldest LastFetched first — the
	// backfill lane's candidate source.
	Deficient(ctx context.Context, limit int) ([]*entity.Page, error)

	// CountNonSentinel returns the number of pages rows excluding
	// entity.SentinelURL, for the run summary's pages_non_sentinel count.
	CountNonSentinel(ctx context.Context) (int, error)
}
