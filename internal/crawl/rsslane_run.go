package crawl

import (
	"context"
	"log/slog"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/runctx"
)

// runRSSLane fetches each configured feed and upserts a minimal record per
// entry, per spec.md §4.8 step 2.
func (o *Orchestrator) runRSSLane(ctx context.Context, runID string) {
	for _, feedURL := range o.seed.RSSFeeds {
		pages, err := o.rss.fetch(ctx, feedURL)
		if err != nil {
			slog.Warn("rss lane fetch failed", slog.String("feed", feedURL), slog.Any("error", err))
			continue
		}
		for _, page := range pages {
			if o.reachedPageLimit() {
				return
			}
			changed, err := o.pages.Upsert(ctx, page)
			if err != nil {
				o.logFetch(ctx, runID, page.URL, entity.FetchStatusNG, 0)
				continue
			}
			status := entity.FetchStatusSkip
			if changed {
				status = entity.FetchStatusOK
			}
			o.logFetch(ctx, runID, page.URL, status, 0)
		}
	}
}

func (o *Orchestrator) logFetch(ctx context.Context, runID, url string, status entity.FetchStatus, tookMS int) {
	o.logFetchDetail(ctx, runID, url, status, tookMS, "")
}

func (o *Orchestrator) logFetchDetail(ctx context.Context, runID, url string, status entity.FetchStatus, tookMS int, detail string) {
	msg := runctx.Prefix(runID) + detail
	if err := o.fetchLog.Log(ctx, url, status, tookMS, &msg); err != nil {
		slog.Warn("fetch_log write failed", slog.String("url", url), slog.Any("error", err))
	}
}
