package crawl

import (
	"context"
	"log/slog"
	"time"

	"catchup-feed/internal/discovery"
	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/extract"
	"catchup-feed/internal/infra/scheduler"
	"catchup-feed/internal/seedconfig"
)

// runCrawlLane walks every seed source: conditional-fetch the list page,
// build and filter a candidate list, then dispatch each candidate to the
// worker pool. Per spec.md §4.8 step 3.
func (o *Orchestrator) runCrawlLane(ctx context.Context, runID string, deadline *scheduler.Deadline) {
	for _, source := range o.seed.Sources {
		if deadline.Expired(minRemaining) {
			return
		}
		o.runSource(ctx, runID, source, deadline)
	}
}

func (o *Orchestrator) runSource(ctx context.Context, runID string, source seedconfig.Source, deadline *scheduler.Deadline) {
	cached, _ := o.httpCache.Get(ctx, source.URL)
	var priorETag, priorLM *string
	if cached != nil {
		priorETag, priorLM = cached.ETag, cached.LastModified
	}

	start := time.Now()
	result, err := o.fetcher.Fetch(ctx, source.URL, priorETag, priorLM)
	if err != nil {
		o.logFetch(ctx, runID, source.URL, entity.FetchStatusNG, int(time.Since(start).Milliseconds()))
		return
	}
	_ = o.httpCache.Upsert(ctx, source.URL, result.ETag, result.LastModified, result.StatusCode)

	if !result.BodyPresent {
		o.logFetch(ctx, runID, source.URL, entity.FetchStatusList, int(time.Since(start).Milliseconds()))
		return
	}
	if !isDocumentContentType(result.ContentType) {
		o.logFetchDetail(ctx, runID, source.URL, entity.FetchStatusSkip, int(time.Since(start).Milliseconds()), "ctype="+result.ContentType)
		return
	}
	o.logFetch(ctx, runID, source.URL, entity.FetchStatusList, int(time.Since(start).Milliseconds()))

	cs, err := seedconfig.Compile(source)
	if err != nil {
		slog.Warn("source regex compile failed, skipping source", slog.String("url", source.URL), slog.Any("error", err))
		return
	}

	candidates := discovery.BuildCandidates(ctx, source.URL, result.Body, o.allow, o.discoveryProvider, source.Query, o.cfg.MaxPerDomain, source.MaxNew)
	candidates = filterMatches(candidates, cs)

	tasks := make([]scheduler.Task, 0, len(candidates))
	for _, u := range candidates {
		tasks = append(tasks, scheduler.Task{URL: u})
	}

	err = scheduler.Dispatch(ctx, o.scheduler, deadline, minRemaining, tasks, func(taskCtx context.Context, t scheduler.Task) error {
		o.fetchOne(taskCtx, runID, t.URL)
		return nil
	})
	if err != nil {
		slog.Warn("crawl lane dispatch ended early", slog.String("source", source.URL), slog.Any("error", err))
	}
}

func filterMatches(urls []string, cs seedconfig.CompiledSource) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if cs.Matches(u) {
			out = append(out, u)
		}
	}
	return out
}

func isDocumentContentType(ct string) bool {
	switch ct {
	case "text/html", "application/xhtml+xml", "application/pdf":
		return true
	default:
		return false
	}
}

// fetchOne is the per-candidate worker body: conditional-fetch, route by
// content type, or fall into the recovery ladder on fetch failure.
func (o *Orchestrator) fetchOne(ctx context.Context, runID, urlStr string) {
	if o.reachedPageLimit() {
		return
	}

	start := time.Now()
	cached, _ := o.httpCache.Get(ctx, urlStr)
	var priorETag, priorLM *string
	if cached != nil {
		priorETag, priorLM = cached.ETag, cached.LastModified
	}

	result, err := o.fetcher.Fetch(ctx, urlStr, priorETag, priorLM)
	if err != nil {
		o.ladder.Run(ctx, runID, urlStr, false)
		return
	}
	_ = o.httpCache.Upsert(ctx, urlStr, result.ETag, result.LastModified, result.StatusCode)

	tookMS := int(time.Since(start).Milliseconds())

	if !result.BodyPresent {
		o.logFetch(ctx, runID, urlStr, entity.FetchStatus304, tookMS)
		return
	}

	switch result.ContentType {
	case "text/html", "application/xhtml+xml":
		o.upsertAndLog(ctx, runID, extract.ExtractFromHTML(urlStr, result.Body), tookMS)
	case "application/pdf":
		o.upsertAndLog(ctx, runID, extract.PDFRow(urlStr), tookMS)
	default:
		o.logFetchDetail(ctx, runID, urlStr, entity.FetchStatusSkip, tookMS, "ctype="+result.ContentType)
	}
}

func (o *Orchestrator) upsertAndLog(ctx context.Context, runID string, page *entity.Page, tookMS int) {
	changed, err := o.pages.Upsert(ctx, page)
	if err != nil {
		o.logFetch(ctx, runID, page.URL, entity.FetchStatusNG, tookMS)
		return
	}
	status := entity.FetchStatusSkip
	if changed {
		status = entity.FetchStatusOK
	}
	o.logFetch(ctx, runID, page.URL, status, tookMS)
}
