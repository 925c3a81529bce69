// Package postgres implements the repository interfaces against PostgreSQL
// via database/sql and the pgx stdlib driver, following the upsert and
// scan idioms the teacher's article/source repos use.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/normalize"
	"catchup-feed/internal/repository"
)

// PageRepo is the PostgreSQL-backed repository.PageRepository.
type PageRepo struct{ db *sql.DB }

// NewPageRepo creates a new PostgreSQL-based PageRepository.
func NewPageRepo(db *sql.DB) repository.PageRepository {
	return &PageRepo{db: db}
}

// Upsert computes the content hash and writes the record, returning false
// when an existing row already has the identical hash (content-hash
// stability, spec.md §8.2) and true otherwise, advancing last_fetched only
// on the changed path.
func (r *PageRepo) Upsert(ctx context.Context, page *entity.Page) (bool, error) {
	if page.Title == "" {
		page.Title = entity.UntitledSentinel
	}
	page.Summary = normalize.Clip(normalize.NormWS(page.Summary), 800)
	page.ContentHash = normalize.ContentHash(page.HashedFields())

	var existingHash string
	err := r.db.QueryRowContext(ctx, `SELECT content_hash FROM pages WHERE url = $1`, page.URL).Scan(&existingHash)
	switch {
	case err == sql.ErrNoRows:
		// first sighting of this URL, fall through to insert
	case err != nil:
		return false, fmt.Errorf("Upsert: lookup: %w", err)
	case existingHash == page.ContentHash:
		return false, nil
	}

	const query = `
INSERT INTO pages (
    url, title, summary, rate, cap, target, cost_items, deadline,
    fiscal_year, call_no, scheme_type, period_from, period_to,
    content_hash, last_fetched
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now()
)
ON CONFLICT (url) DO UPDATE SET
    title        = EXCLUDED.title,
    summary      = EXCLUDED.summary,
    rate         = EXCLUDED.rate,
    cap          = EXCLUDED.cap,
    target       = EXCLUDED.target,
    cost_items   = EXCLUDED.cost_items,
    deadline     = EXCLUDED.deadline,
    fiscal_year  = EXCLUDED.fiscal_year,
    call_no      = EXCLUDED.call_no,
    scheme_type  = EXCLUDED.scheme_type,
    period_from  = EXCLUDED.period_from,
    period_to    = EXCLUDED.period_to,
    content_hash = EXCLUDED.content_hash,
    last_fetched = now()
RETURNING last_fetched`

	if _, err := r.db.ExecContext(ctx, query,
		page.URL, page.Title, page.Summary, page.Rate, page.Cap, page.Target,
		page.CostItems, page.Deadline, page.FiscalYear, page.CallNo,
		page.SchemeType, page.PeriodFrom, page.PeriodTo, page.ContentHash,
	); err != nil {
		return false, fmt.Errorf("Upsert: %w", err)
	}
	return true, nil
}

func scanPage(row interface{ Scan(...any) error }) (*entity.Page, error) {
	var p entity.Page
	if err := row.Scan(
		&p.URL, &p.Title, &p.Summary, &p.Rate, &p.Cap, &p.Target, &p.CostItems,
		&p.Deadline, &p.FiscalYear, &p.CallNo, &p.SchemeType, &p.PeriodFrom,
		&p.PeriodTo, &p.ContentHash, &p.LastFetched,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

const pageColumns = `url, title, summary, rate, cap, target, cost_items, deadline,
    fiscal_year, call_no, scheme_type, period_from, period_to, content_hash, last_fetched`

// Query implements the recommend-path read contract (spec.md §4.11).
func (r *PageRepo) Query(ctx context.Context, q *string, limit int) ([]*entity.Page, error) {
	var rows *sql.Rows
	var err error
	if q != nil && *q != "" {
		rows, err = r.db.QueryContext(ctx, `
SELECT `+pageColumns+`
FROM pages
WHERE tokens @@ plainto_tsquery('simple', $1)
ORDER BY last_fetched DESC
LIMIT $2`, *q, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
SELECT `+pageColumns+`
FROM pages
ORDER BY last_fetched DESC
LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("Query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	pages := make([]*entity.Page, 0, limit)
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("Query: scan: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Deficient returns the backfill lane's candidate list: pages whose title
// is still the untitled sentinel or whose summary is empty, oldest first.
func (r *PageRepo) Deficient(ctx context.Context, limit int) ([]*entity.Page, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+pageColumns+`
FROM pages
WHERE (title = $1 OR summary = '') AND url != $2
ORDER BY last_fetched ASC
LIMIT $3`, entity.UntitledSentinel, entity.SentinelURL, limit)
	if err != nil {
		return nil, fmt.Errorf("Deficient: %w", err)
	}
	defer func() { _ = rows.Close() }()

	pages := make([]*entity.Page, 0, limit)
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("Deficient: scan: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// CountNonSentinel returns pages rows excluding entity.SentinelURL.
func (r *PageRepo) CountNonSentinel(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM pages WHERE url != $1`, entity.SentinelURL).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountNonSentinel: %w", err)
	}
	return n, nil
}
