package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catchup-feed/internal/repository"
)

// QuotaRepo is the PostgreSQL-backed repository.QuotaRepository, keyed by
// (month, api) with month formatted "YYYY-MM" UTC.
type QuotaRepo struct{ db *sql.DB }

// NewQuotaRepo creates a new PostgreSQL-based QuotaRepository.
func NewQuotaRepo(db *sql.DB) repository.QuotaRepository {
	return &QuotaRepo{db: db}
}

func currentMonth() string {
	return time.Now().UTC().Format("2006-01")
}

// SetMonthlyLimit upserts (currentMonth, api) with quota_limit=limit,
// never touching used.
func (r *QuotaRepo) SetMonthlyLimit(ctx context.Context, api string, limit int) error {
	const query = `
INSERT INTO api_quota (month, api, used, quota_limit)
VALUES ($1, $2, 0, $3)
ON CONFLICT (month, api) DO UPDATE SET quota_limit = EXCLUDED.quota_limit`
	if _, err := r.db.ExecContext(ctx, query, currentMonth(), api, limit); err != nil {
		return fmt.Errorf("SetMonthlyLimit: %w", err)
	}
	return nil
}

// GetUsage returns (used, quotaLimit) for the current month, or (0, 0) if
// no row exists yet — spec.md §4.7.
func (r *QuotaRepo) GetUsage(ctx context.Context, api string) (int, int, error) {
	var used, limit int
	err := r.db.QueryRowContext(ctx, `
SELECT used, quota_limit FROM api_quota WHERE month = $1 AND api = $2`,
		currentMonth(), api).Scan(&used, &limit)
	if err == sql.ErrNoRows {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("GetUsage: %w", err)
	}
	return used, limit, nil
}

// AddUsage atomically increments used by n for the current month, creating
// the row (quota_limit=0, i.e. unconfigured/deny) if absent.
func (r *QuotaRepo) AddUsage(ctx context.Context, api string, n int) error {
	const query = `
INSERT INTO api_quota (month, api, used, quota_limit)
VALUES ($1, $2, $3, 0)
ON CONFLICT (month, api) DO UPDATE SET used = api_quota.used + EXCLUDED.used`
	if _, err := r.db.ExecContext(ctx, query, currentMonth(), api, n); err != nil {
		return fmt.Errorf("AddUsage: %w", err)
	}
	return nil
}
