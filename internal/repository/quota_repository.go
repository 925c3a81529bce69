package repository

import "context"

// QuotaRepository backs the Budget Gate (spec.md §4.7): monthly,
// per-API usage counters keyed by (month, api).
type QuotaRepository interface {
	// SetMonthlyLimit upserts (currentMonth, api) with quota_limit=limit.
	// It never touches used.
	SetMonthlyLimit(ctx context.Context, api string, limit int) error

	// GetUsage returns (used, quotaLimit) for the current month, or
	// (0, 0) if no row exists yet.
	GetUsage(ctx context.Context, api string) (used int, quotaLimit int, err error)

	// AddUsage atomically increments used by n for the current month,
	// creating the row (with quota_limit=0) if absent.
	AddUsage(ctx context.Context, api string, n int) error
}
