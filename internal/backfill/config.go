// Package backfill implements the recovery ladder (C9): the repair path
// for a URL with an empty title/summary, or one that failed mid-crawl.
package backfill

import (
	"os"
	"strconv"
	"time"
)

// Config tunes the ladder's HEAD preflight and stage-1 conditional GET,
// distinct from the crawl lane's per-host defaults (spec.md §4.9).
type Config struct {
	HeadConnectTimeout  time.Duration
	HeadReadTimeout     time.Duration
	Stage1ReadTimeout   time.Duration
	LargeBytesThreshold int64
	SingleOne           bool
}

// DefaultConfig mirrors spec.md §4.9's "typically 3 minutes" stage-1
// timeout and a conservative large-body threshold.
func DefaultConfig() Config {
	return Config{
		HeadConnectTimeout:  10 * time.Second,
		HeadReadTimeout:     10 * time.Second,
		Stage1ReadTimeout:   3 * time.Minute,
		LargeBytesThreshold: 20 * 1024 * 1024,
		SingleOne:           false,
	}
}

// LoadConfigFromEnv overlays DefaultConfig with HEAD_CONNECT_TIMEOUT,
// HEAD_READ_TIMEOUT, SINGLE_STAGE1_READ_TIMEOUT, SINGLE_LARGE_BYTES and
// SINGLE_BACKFILL_ONE, all optional.
func LoadConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v, ok := envSeconds("HEAD_CONNECT_TIMEOUT"); ok {
		cfg.HeadConnectTimeout = v
	}
	if v, ok := envSeconds("HEAD_READ_TIMEOUT"); ok {
		cfg.HeadReadTimeout = v
	}
	if v, ok := envSeconds("SINGLE_STAGE1_READ_TIMEOUT"); ok {
		cfg.Stage1ReadTimeout = v
	}
	if raw := os.Getenv("SINGLE_LARGE_BYTES"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			cfg.LargeBytesThreshold = n
		}
	}
	if raw := os.Getenv("SINGLE_BACKFILL_ONE"); raw != "" {
		cfg.SingleOne = raw == "1"
	}
	return cfg
}

func envSeconds(key string) (time.Duration, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}
