// Package crawl implements the run orchestrator (C8): the lane sequencer
// that drives RSS, crawl, backfill and discovery over one run, adapted
// from the teacher's usecase/fetch service control flow.
package crawl

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"catchup-feed/internal/backfill"
	"catchup-feed/internal/budget"
	"catchup-feed/internal/discovery"
	"catchup-feed/internal/infra/db"
	"catchup-feed/internal/infra/fetcher"
	"catchup-feed/internal/infra/scheduler"
	"catchup-feed/internal/repository"
	"catchup-feed/internal/runconfig"
	"catchup-feed/internal/runsummary"
	"catchup-feed/internal/seedconfig"
)

// Orchestrator sequences one crawl run's lanes end to end.
type Orchestrator struct {
	db *sql.DB

	pages     repository.PageRepository
	httpCache repository.HTTPCacheRepository
	fetchLog  repository.FetchLogRepository
	quota     *budget.Gate

	fetcher   *fetcher.ConditionalFetcher
	scheduler *scheduler.Scheduler
	ladder    *backfill.Ladder
	rss       *rssFetcher

	discoveryProvider discovery.Provider
	allow             discovery.AllowList
	seed              *seedconfig.Seed

	cfg         runconfig.RunConfig
	backfillCfg backfill.Config
	metrics     *Metrics

	savedMu sync.Mutex
	saved   int
}

// New wires an Orchestrator from cfg, an open database handle, the parsed
// seed file and the optional discovery/deep-research providers (nil
// disables the corresponding lane).
func New(
	cfg runconfig.RunConfig,
	sqlDB *sql.DB,
	seed *seedconfig.Seed,
	discoveryProvider discovery.Provider,
	textExtractor discovery.TextExtractor,
	metrics *Metrics,
) *Orchestrator {
	pages := newPageRepo(sqlDB)
	httpCache := newHTTPCacheRepo(sqlDB)
	fetchLog := newFetchLogRepo(sqlDB)
	quota := budget.NewGate(newQuotaRepo(sqlDB))

	fetchCfg := fetcher.DefaultConditionalConfig()
	fetchCfg.ConnectTimeout = cfg.ConnectTimeout
	fetchCfg.DefaultReadTimeout = cfg.ReadTimeout
	fetchCfg.ForceRefresh = cfg.ForceRefresh
	cf := fetcher.NewConditionalFetcher(fetchCfg)

	allow := discovery.NewAllowList(seed.AllowedHosts)
	backfillCfg := backfill.LoadConfigFromEnv()
	ladder := backfill.NewLadder(backfillCfg, cf, textExtractor, allow, pages, fetchLog)

	return &Orchestrator{
		db:                sqlDB,
		pages:             pages,
		httpCache:         httpCache,
		fetchLog:          fetchLog,
		quota:             quota,
		fetcher:           cf,
		scheduler:         scheduler.New(cfg.ParallelWorkers, cfg.PerHostLimit).WithHostRate(cfg.HostRPS, cfg.HostBurst),
		ladder:            ladder,
		rss:               newRSSFetcher(&http.Client{Timeout: 30 * time.Second}),
		discoveryProvider: discoveryProvider,
		allow:             allow,
		seed:              seed,
		cfg:               cfg,
		backfillCfg:       backfillCfg,
		metrics:           metrics,
	}
}

// minRemaining is the "< 5s left, return immediately" threshold every lane
// and worker checks, per spec.md §4.8.
const minRemaining = 5 * time.Second

// Run sequences every lane in order, each gated by deadline, and emits the
// run summary line to stdout on the way out. Orchestrator-level faults
// (schema bootstrap failure) abort the run; lane-level faults never do.
func (o *Orchestrator) Run(ctx context.Context, runID string) error {
	start := time.Now()
	deadline := scheduler.NewDeadline(o.cfg.HardKill)

	if err := db.EnsureSchema(o.db); err != nil {
		if o.metrics != nil {
			o.metrics.RunsTotal.WithLabelValues("failure").Inc()
		}
		return err
	}

	if !deadline.Expired(minRemaining) {
		o.runRSSLane(ctx, runID)
	}
	if !deadline.Expired(minRemaining) {
		o.runCrawlLane(ctx, runID, deadline)
	}
	if !deadline.Expired(minRemaining) {
		o.runBackfillLane(ctx, runID, deadline)
	}
	if !deadline.Expired(minRemaining) {
		o.runDiscoveryLane(ctx, runID)
	}

	summary, err := runsummary.Build(ctx, o.fetchLog, o.pages, runID)
	if err != nil {
		slog.Error("run summary query failed", slog.Any("error", err))
		return nil
	}
	fmt.Println(summary.Line())

	if o.metrics != nil {
		o.metrics.RunsTotal.WithLabelValues("success").Inc()
		o.metrics.RunDurationSeconds.Observe(time.Since(start).Seconds())
		o.metrics.PagesSavedTotal.Add(float64(o.saved))
		o.metrics.LastRunTimestamp.SetToCurrentTime()
	}
	return nil
}

// reachedPageLimit reports whether the run's saved-page budget
// (max_pages_per_run) has already been spent, and if not, reserves one
// unit for the caller. Guarded by a mutex per spec.md §5's shared
// "pages saved" counter.
func (o *Orchestrator) reachedPageLimit() bool {
	o.savedMu.Lock()
	defer o.savedMu.Unlock()
	if o.saved >= o.cfg.MaxPagesPerRun {
		return true
	}
	o.saved++
	return false
}
