package crawl

import (
	"context"

	"catchup-feed/internal/infra/scheduler"
)

// runBackfillLane fetches a batch of deficient pages (untitled or
// summary-less) and repairs each through the recovery ladder's full HEAD
// preflight path, per spec.md §4.8 step 4.
func (o *Orchestrator) runBackfillLane(ctx context.Context, runID string, deadline *scheduler.Deadline) {
	limit := o.cfg.MaxPerDomain
	if limit <= 0 {
		limit = 40
	}
	if o.backfillCfg.SingleOne {
		limit = 1
	}
	candidates, err := o.pages.Deficient(ctx, limit)
	if err != nil || len(candidates) == 0 {
		return
	}

	for _, page := range candidates {
		if deadline.Expired(minRemaining) {
			return
		}
		o.ladder.Run(ctx, runID, page.URL, true)
	}
}
