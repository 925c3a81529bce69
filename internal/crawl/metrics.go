package crawl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes Prometheus counters/gauges for one crawl process,
// adapted from the teacher's cron-job metrics (internal/infra/worker).
type Metrics struct {
	RunsTotal          *prometheus.CounterVec
	RunDurationSeconds prometheus.Histogram
	PagesSavedTotal    prometheus.Counter
	LastRunTimestamp   prometheus.Gauge
}

// NewMetrics builds and registers the crawl process's Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crawl_runs_total",
			Help: "Total number of crawl runs by outcome (success/failure)",
		}, []string{"status"}),

		RunDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "crawl_run_duration_seconds",
			Help:    "Duration of a crawl run in seconds",
			Buckets: []float64{1, 5, 30, 60, 120, 300, 600},
		}),

		PagesSavedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crawl_pages_saved_total",
			Help: "Total number of page slots used against the per-run page limit across all runs (one per URL processed, whatever its outcome)",
		}),

		LastRunTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "crawl_last_run_timestamp",
			Help: "Unix timestamp of the last completed crawl run",
		}),
	}
}
