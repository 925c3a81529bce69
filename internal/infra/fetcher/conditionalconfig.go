package fetcher

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

// ConditionalConfig configures the Conditional Fetcher (C3): connect/read
// timeouts, per-host timeout overrides, retry policy and the process-wide
// force-refresh switch.
type ConditionalConfig struct {
	ConnectTimeout     time.Duration
	DefaultReadTimeout time.Duration
	HostReadTimeouts   map[string]time.Duration
	MaxConnRetries     int
	BackoffFactor      float64
	ForceRefresh       bool
	DenyPrivateIPs     bool
	MaxBodySize        int64
	UserAgent          string
}

// DefaultConditionalConfig mirrors spec.md §6's default env values.
func DefaultConditionalConfig() ConditionalConfig {
	return ConditionalConfig{
		ConnectTimeout:     10 * time.Second,
		DefaultReadTimeout: 35 * time.Second,
		HostReadTimeouts:   map[string]time.Duration{},
		MaxConnRetries:     3,
		BackoffFactor:      1.2,
		ForceRefresh:       false,
		DenyPrivateIPs:     true,
		MaxBodySize:        20 * 1024 * 1024,
		UserAgent:          "CatchUpCrawlerBot/1.0 (+https://example.invalid/bot)",
	}
}

// ReadTimeoutFor returns the read timeout for host, falling back to the
// configured default when no host-specific override exists.
func (c ConditionalConfig) ReadTimeoutFor(host string) time.Duration {
	if d, ok := c.HostReadTimeouts[strings.ToLower(host)]; ok {
		return d
	}
	return c.DefaultReadTimeout
}

// LoadConditionalConfigFromEnv loads CONNECT_TIMEOUT, READ_TIMEOUT,
// FORCE_REFRESH and HOST_READ_TIMEOUTS_JSON (a JSON object mapping host to
// seconds) from the environment, falling back to defaults on missing or
// invalid values.
func LoadConditionalConfigFromEnv() ConditionalConfig {
	cfg := DefaultConditionalConfig()

	if v := os.Getenv("CONNECT_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.ConnectTimeout = time.Duration(secs) * time.Second
		}
	}

	if v := os.Getenv("READ_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.DefaultReadTimeout = time.Duration(secs) * time.Second
		}
	}

	if v := os.Getenv("FORCE_REFRESH"); v == "1" || v == "true" {
		cfg.ForceRefresh = true
	}

	if v := os.Getenv("HOST_READ_TIMEOUTS_JSON"); v != "" {
		var raw map[string]int
		if err := json.Unmarshal([]byte(v), &raw); err == nil {
			for host, secs := range raw {
				if secs > 0 {
					cfg.HostReadTimeouts[strings.ToLower(host)] = time.Duration(secs) * time.Second
				}
			}
		}
	}

	return cfg
}
