// Package budget implements the Budget Gate (spec.md §4.7): monthly,
// per-named-API quota checks that the discovery lane consults before
// spending a paid call.
package budget

import (
	"context"
	"fmt"

	"catchup-feed/internal/repository"
)

// Gate is the Budget Gate.
type Gate struct {
	quota repository.QuotaRepository
}

// NewGate constructs a Gate backed by the given quota repository.
func NewGate(quota repository.QuotaRepository) *Gate {
	return &Gate{quota: quota}
}

// SetMonthlyLimit configures the limit for api without touching usage.
func (g *Gate) SetMonthlyLimit(ctx context.Context, api string, limit int) error {
	return g.quota.SetMonthlyLimit(ctx, api, limit)
}

// GetUsage returns (used, limit) for the current month.
func (g *Gate) GetUsage(ctx context.Context, api string) (used int, limit int, err error) {
	return g.quota.GetUsage(ctx, api)
}

// CanSpend reports whether n additional units of api fit under its
// configured monthly limit. An unconfigured limit (0) denies
// conservatively — spec.md §4.7.
func (g *Gate) CanSpend(ctx context.Context, api string, n int) (bool, error) {
	used, limit, err := g.quota.GetUsage(ctx, api)
	if err != nil {
		return false, fmt.Errorf("CanSpend: %w", err)
	}
	if limit == 0 {
		return false, nil
	}
	return used+n <= limit, nil
}

// AddUsage atomically increments api's usage by n for the current month.
func (g *Gate) AddUsage(ctx context.Context, api string, n int) error {
	return g.quota.AddUsage(ctx, api, n)
}
