package budget_test

import (
	"context"
	"testing"

	"catchup-feed/internal/budget"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuotaRepo struct {
	used, limit int
	setLimits   map[string]int
	added       int
}

func (f *fakeQuotaRepo) SetMonthlyLimit(ctx context.Context, api string, limit int) error {
	if f.setLimits == nil {
		f.setLimits = map[string]int{}
	}
	f.setLimits[api] = limit
	return nil
}

func (f *fakeQuotaRepo) GetUsage(ctx context.Context, api string) (int, int, error) {
	return f.used, f.limit, nil
}

func (f *fakeQuotaRepo) AddUsage(ctx context.Context, api string, n int) error {
	f.added += n
	f.used += n
	return nil
}

func TestGate_CanSpend_DeniesWhenUnconfigured(t *testing.T) {
	repo := &fakeQuotaRepo{used: 0, limit: 0}
	gate := budget.NewGate(repo)

	ok, err := gate.CanSpend(context.Background(), "vertex", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGate_CanSpend_DeniesAtLimit(t *testing.T) {
	repo := &fakeQuotaRepo{used: 9000, limit: 9000}
	gate := budget.NewGate(repo)

	ok, err := gate.CanSpend(context.Background(), "vertex", 50)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGate_CanSpend_AllowsUnderLimit(t *testing.T) {
	repo := &fakeQuotaRepo{used: 100, limit: 9000}
	gate := budget.NewGate(repo)

	ok, err := gate.CanSpend(context.Background(), "vertex", 50)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGate_AddUsage(t *testing.T) {
	repo := &fakeQuotaRepo{}
	gate := budget.NewGate(repo)

	require.NoError(t, gate.AddUsage(context.Background(), "vertex", 10))
	assert.Equal(t, 10, repo.added)
}
