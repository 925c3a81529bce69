package crawl

import (
	"context"
	"log/slog"
)

const discoveryAPIName = "discovery"

// runDiscoveryLane asks the configured discovery provider for candidate
// URLs across every source that opted in (source.Discover set), gated by
// the Budget Gate, and runs each returned URL through the recovery ladder
// (stage-1 GET, extraction and upsert).
// Per spec.md §4.8 step 5.
func (o *Orchestrator) runDiscoveryLane(ctx context.Context, runID string) {
	if o.discoveryProvider == nil {
		return
	}

	for _, source := range o.seed.Sources {
		if source.Discover == "" || source.Query == "" {
			continue
		}
		canSpend, err := o.quota.CanSpend(ctx, discoveryAPIName, 1)
		if err != nil {
			slog.Warn("discovery budget check failed", slog.Any("error", err))
			continue
		}
		if !canSpend {
			slog.Info("discovery lane skipped: budget exhausted", slog.String("source", source.URL))
			continue
		}

		urls := o.discoveryProvider.Discover(ctx, source.Query, o.allow)
		if len(urls) == 0 {
			continue
		}
		if err := o.quota.AddUsage(ctx, discoveryAPIName, 1); err != nil {
			slog.Warn("discovery usage increment failed", slog.Any("error", err))
		}

		for _, u := range urls {
			if o.reachedPageLimit() {
				return
			}
			o.ladder.Run(ctx, runID, u, false)
		}
	}
}
