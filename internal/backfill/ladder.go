package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"catchup-feed/internal/discovery"
	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/extract"
	"catchup-feed/internal/infra/fetcher"
	"catchup-feed/internal/repository"
	"catchup-feed/internal/runctx"
)

// Ladder is the recovery path (C9) for a URL whose title/summary are
// still empty, or that failed mid-crawl: HEAD preflight, a stage-1
// conditional GET with a forced full body, meta-refresh-to-PDF rerouting
// and a deep-research fallback (spec.md §4.9).
type Ladder struct {
	cfg           Config
	fetcher       *fetcher.ConditionalFetcher
	headClient    *http.Client
	textExtractor discovery.TextExtractor
	allow         discovery.AllowList
	pages         repository.PageRepository
	fetchLog      repository.FetchLogRepository
}

// NewLadder builds a Ladder. textExtractor may be nil, disabling stage 4.
func NewLadder(cfg Config, cf *fetcher.ConditionalFetcher, textExtractor discovery.TextExtractor, allow discovery.AllowList, pages repository.PageRepository, fetchLog repository.FetchLogRepository) *Ladder {
	return &Ladder{
		cfg:           cfg,
		fetcher:       cf,
		headClient:    headClient(cfg),
		textExtractor: textExtractor,
		allow:         allow,
		pages:         pages,
		fetchLog:      fetchLog,
	}
}

// Run executes the ladder for urlStr. headPreflight is true only for the
// backfill lane's own candidates (spec.md §4.9 step 1: "backfill only");
// URLs arriving here after a crawl-lane failure skip straight to stage 1.
func (l *Ladder) Run(ctx context.Context, runID, urlStr string, headPreflight bool) {
	start := time.Now()

	if headPreflight {
		head := probeHead(ctx, l.headClient, urlStr, l.cfg)
		if head.Err == nil {
			if head.ContentType == "application/pdf" {
				l.upsertAndLog(ctx, runID, urlStr, extract.PDFRow(urlStr), start)
				return
			}
			if head.ContentLength >= l.cfg.LargeBytesThreshold {
				l.deepResearchOrFail(ctx, runID, urlStr, start)
				return
			}
		}
	}

	result, err := l.fetcher.FetchWithTimeout(ctx, urlStr, nil, nil, l.cfg.Stage1ReadTimeout)
	if err != nil {
		l.deepResearchOrFail(ctx, runID, urlStr, start)
		return
	}
	if !result.BodyPresent {
		l.log(ctx, runID, urlStr, entity.FetchStatusSkip, start, strPtr("reason=no-body"))
		return
	}

	switch result.ContentType {
	case "application/pdf":
		l.upsertAndLog(ctx, runID, urlStr, extract.PDFRow(urlStr), start)
	case "text/html", "application/xhtml+xml":
		if target, ok := detectMetaRefreshPDF(urlStr, result.Body); ok {
			l.upsertAndLog(ctx, runID, urlStr, extract.PDFRow(target), start)
			return
		}
		l.upsertAndLog(ctx, runID, urlStr, extract.ExtractFromHTML(urlStr, result.Body), start)
	default:
		l.log(ctx, runID, urlStr, entity.FetchStatusSkip, start, strPtr(fmt.Sprintf("ctype=%s", result.ContentType)))
	}
}

func (l *Ladder) deepResearchOrFail(ctx context.Context, runID, urlStr string, start time.Time) {
	if l.textExtractor == nil || !l.allow.AllowsURL(urlStr) {
		l.log(ctx, runID, urlStr, entity.FetchStatusNG, start, strPtr("reason=ladder-exhausted"))
		return
	}
	text, ok := l.textExtractor.FetchText(ctx, urlStr, 4000)
	if !ok || text == "" {
		l.log(ctx, runID, urlStr, entity.FetchStatusNG, start, strPtr("reason=deep-research-empty"))
		return
	}
	l.upsertAndLog(ctx, runID, urlStr, extract.ExtractFromText(urlStr, text), start)
}

func (l *Ladder) upsertAndLog(ctx context.Context, runID, urlStr string, page *entity.Page, start time.Time) {
	changed, err := l.pages.Upsert(ctx, page)
	if err != nil {
		l.log(ctx, runID, urlStr, entity.FetchStatusNG, start, strPtr(fmt.Sprintf("upsert error=%v", err)))
		return
	}
	status := entity.FetchStatusSkip
	if changed {
		status = entity.FetchStatusOK
	}
	l.log(ctx, runID, urlStr, status, start, nil)
}

func (l *Ladder) log(ctx context.Context, runID, urlStr string, status entity.FetchStatus, start time.Time, detail *string) {
	tookMS := int(time.Since(start).Milliseconds())
	errText := runctx.Prefix(runID)
	if detail != nil {
		errText += *detail
	}
	msg := errText
	if err := l.fetchLog.Log(ctx, urlStr, status, tookMS, &msg); err != nil {
		slog.Warn("fetch_log write failed", slog.String("url", urlStr), slog.Any("error", err))
	}
}

func strPtr(s string) *string { return &s }
