// Package runsummary implements the single-line run summary (C10):
// per-status fetch_log counts for the current run plus the non-sentinel
// pages row count, emitted to stdout as one SUMMARY line (spec.md §4.10).
package runsummary

import (
	"context"
	"fmt"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

// Summary is the aggregated line for one run.
type Summary struct {
	RunID            string
	OK               int
	NotModified      int
	Skip             int
	NG               int
	List             int
	Seed             int
	PagesNonSentinel int
}

// Build queries fetchLog and pages for runID's aggregates.
func Build(ctx context.Context, fetchLog repository.FetchLogRepository, pages repository.PageRepository, runID string) (Summary, error) {
	counts, err := fetchLog.CountByStatus(ctx, runID)
	if err != nil {
		return Summary{}, fmt.Errorf("Build: %w", err)
	}
	nonSentinel, err := pages.CountNonSentinel(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("Build: %w", err)
	}

	return Summary{
		RunID:            runID,
		OK:               counts[entity.FetchStatusOK],
		NotModified:      counts[entity.FetchStatus304],
		Skip:             counts[entity.FetchStatusSkip],
		NG:               counts[entity.FetchStatusNG],
		List:             counts[entity.FetchStatusList],
		Seed:             counts[entity.FetchStatusSeed],
		PagesNonSentinel: nonSentinel,
	}, nil
}

// Line renders the exact stdout contract line spec.md §4.10 requires.
func (s Summary) Line() string {
	return fmt.Sprintf(
		"SUMMARY run=%s: ok=%d, 304=%d, skip=%d, ng=%d, list=%d, seed=%d, pages_non_sentinel=%d",
		s.RunID, s.OK, s.NotModified, s.Skip, s.NG, s.List, s.Seed, s.PagesNonSentinel,
	)
}
