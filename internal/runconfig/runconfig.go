// Package runconfig loads the crawl process's environment configuration
// (spec.md §6), reusing the teacher's validated-env-loader idiom from
// internal/pkg/config.
package runconfig

import (
	"os"
	"strconv"
	"time"

	pkgconfig "catchup-feed/internal/pkg/config"
)

// RunConfig is the full set of environment-configurable knobs for one
// crawl run.
type RunConfig struct {
	DatabaseURL string
	SeedPath    string
	RunID       string

	TimeBudget time.Duration
	HardKill   time.Duration

	MaxPagesPerRun int
	MaxPerDomain   int
	ParallelWorkers int
	PerHostLimit    int
	HostRPS         float64
	HostBurst       int

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	ForceRefresh   bool

	DiscoveryAPIKey    string
	DeepResearchAPIKey string
}

func positive(n int) error {
	if n <= 0 {
		return errPositive
	}
	return nil
}

var errPositive = positiveError{}

type positiveError struct{}

func (positiveError) Error() string { return "value must be positive" }

// secondsEnv loads an integer-seconds env var (spec.md's *_SEC / *_TIMEOUT
// vars are plain integers, not Go duration strings) via LoadEnvInt.
func secondsEnv(key string, defaultSeconds int) time.Duration {
	n := pkgconfig.LoadEnvInt(key, defaultSeconds, positive).Value.(int)
	return time.Duration(n) * time.Second
}

// floatEnv loads a float env var, falling back to defaultValue on any
// missing or unparseable value. Used only for HOST_REQUESTS_PER_SEC, which
// pkgconfig's integer/duration/bool loaders don't cover.
func floatEnv(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

// LoadFromEnv reads the crawl run's full environment configuration,
// falling back to spec.md §6's defaults on any missing or invalid value.
func LoadFromEnv() RunConfig {
	return RunConfig{
		DatabaseURL: pkgconfig.LoadEnvString("DATABASE_URL", ""),
		SeedPath:    pkgconfig.LoadEnvString("SEED_FILE", "seed.yaml"),
		RunID:       pkgconfig.LoadEnvString("RUN_ID", ""),

		TimeBudget: secondsEnv("TIME_BUDGET_SEC", 300),
		HardKill:   secondsEnv("HARD_KILL_SEC", 600),

		MaxPagesPerRun:  pkgconfig.LoadEnvInt("MAX_PAGES_PER_RUN", 90, positive).Value.(int),
		MaxPerDomain:    pkgconfig.LoadEnvInt("MAX_PER_DOMAIN", 40, positive).Value.(int),
		ParallelWorkers: pkgconfig.LoadEnvInt("PARALLEL_WORKERS", 6, positive).Value.(int),
		PerHostLimit:    pkgconfig.LoadEnvInt("PER_HOST_LIMIT", 2, positive).Value.(int),
		HostRPS:         floatEnv("HOST_REQUESTS_PER_SEC", 1),
		HostBurst:       pkgconfig.LoadEnvInt("HOST_BURST", 1, positive).Value.(int),

		ConnectTimeout: secondsEnv("CONNECT_TIMEOUT", 10),
		ReadTimeout:    secondsEnv("READ_TIMEOUT", 40),
		ForceRefresh:   pkgconfig.LoadEnvBool("FORCE_REFRESH", false).Value.(bool),

		DiscoveryAPIKey:    pkgconfig.LoadEnvString("DISCOVERY_API_KEY", ""),
		DeepResearchAPIKey: pkgconfig.LoadEnvString("DEEP_RESEARCH_API_KEY", ""),
	}
}
