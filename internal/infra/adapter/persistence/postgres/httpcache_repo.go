package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

// HTTPCacheRepo is the PostgreSQL-backed repository.HTTPCacheRepository.
type HTTPCacheRepo struct{ db *sql.DB }

// NewHTTPCacheRepo creates a new PostgreSQL-based HTTPCacheRepository.
func NewHTTPCacheRepo(db *sql.DB) repository.HTTPCacheRepository {
	return &HTTPCacheRepo{db: db}
}

// Upsert writes the cache entry honouring the monotonicity rule: a single
// SQL upsert whose CASE expression preserves last_changed_at unless etag or
// last_modified differs from the stored values (spec.md §4.2).
func (r *HTTPCacheRepo) Upsert(ctx context.Context, url string, etag, lastModified *string, status int) error {
	const query = `
INSERT INTO http_cache (url, etag, last_modified, last_status, last_checked_at, last_changed_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (url) DO UPDATE SET
    etag            = EXCLUDED.etag,
    last_modified   = EXCLUDED.last_modified,
    last_status     = EXCLUDED.last_status,
    last_checked_at = now(),
    last_changed_at = CASE
        WHEN http_cache.etag IS DISTINCT FROM EXCLUDED.etag
          OR http_cache.last_modified IS DISTINCT FROM EXCLUDED.last_modified
        THEN now()
        ELSE http_cache.last_changed_at
    END`

	if _, err := r.db.ExecContext(ctx, query, url, etag, lastModified, status); err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

// Get returns the stored entry, or nil if the URL has never been checked.
func (r *HTTPCacheRepo) Get(ctx context.Context, url string) (*entity.HTTPCacheEntry, error) {
	var e entity.HTTPCacheEntry
	err := r.db.QueryRowContext(ctx, `
SELECT url, etag, last_modified, last_status, last_checked_at, last_changed_at
FROM http_cache
WHERE url = $1`, url).Scan(
		&e.URL, &e.ETag, &e.LastModified, &e.LastStatus, &e.LastCheckedAt, &e.LastChangedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &e, nil
}
