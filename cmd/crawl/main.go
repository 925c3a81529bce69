package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	"catchup-feed/internal/crawl"
	"catchup-feed/internal/discovery"
	"catchup-feed/internal/infra/db"
	"catchup-feed/internal/observability/logging"
	"catchup-feed/internal/runconfig"
	"catchup-feed/internal/runctx"
	"catchup-feed/internal/seedconfig"
)

func main() {
	logger := initLogger()
	cfg := runconfig.LoadFromEnv()

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	seed, err := seedconfig.Load(cfg.SeedPath)
	if err != nil {
		logger.Error("failed to load seed file", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := crawl.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startMetricsServer(ctx, logger)

	runOnce := func() {
		runCtx, runCancel := context.WithTimeout(ctx, cfg.TimeBudget+30*time.Second)
		defer runCancel()
		runOneCrawl(runCtx, logger, cfg, database, seed, metrics)
	}

	schedule := os.Getenv("CRON_SCHEDULE")
	if schedule == "" {
		runOnce()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, runOnce); err != nil {
		logger.Error("invalid CRON_SCHEDULE, running once instead", slog.Any("error", err))
		runOnce()
		return
	}
	c.Start()
	logger.Info("crawl scheduler started", slog.String("cron_schedule", schedule))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	c.Stop()
}

// runOneCrawl builds a fresh Orchestrator (discovery/deep-research
// providers are re-resolved from env each run so a key rotated between
// scheduled runs takes effect without a restart) and runs one pass.
func runOneCrawl(ctx context.Context, logger *slog.Logger, cfg runconfig.RunConfig, database *sql.DB, seed *seedconfig.Seed, metrics *crawl.Metrics) {
	runID := runctx.ResolveRunID(cfg.RunID, time.Now())

	var provider discovery.Provider
	if p := discovery.NewExternalProvider(cfg.DiscoveryAPIKey); p != nil {
		provider = p
	}
	var textExtractor discovery.TextExtractor
	if p := discovery.NewDeepResearchProvider(cfg.DeepResearchAPIKey); p != nil {
		textExtractor = p
	}

	orchestrator := crawl.New(cfg, database, seed, provider, textExtractor, metrics)

	logger.Info("crawl run starting", slog.String("run_id", runID))
	if err := orchestrator.Run(ctx, runID); err != nil {
		logger.Error("crawl run failed", slog.String("run_id", runID), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("crawl run finished", slog.String("run_id", runID))
}

func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}
