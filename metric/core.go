package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains service-level metrics shared across the caching
// subsystem (not per-cache-instance; those are registered separately
// by each cache that opts in).
type Metrics struct {
	// AdminOperations counts operator-facing registry operations
	// (stats, clear, cleanup) by operation name.
	AdminOperations *prometheus.CounterVec

	// SweepDuration observes how long expired-entry sweeps take.
	SweepDuration prometheus.Histogram

	// SweepRemovals counts files removed by expired-entry sweeps,
	// by cache instance name.
	SweepRemovals *prometheus.CounterVec

	// CacheInstances reports the number of named cache instances owned
	// by the registry.
	CacheInstances prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all service metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		AdminOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jassistant",
				Subsystem: "cache_admin",
				Name:      "operations_total",
				Help:      "Total number of registry admin operations",
			},
			[]string{"operation"},
		),

		SweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "jassistant",
				Subsystem: "cache_admin",
				Name:      "sweep_duration_seconds",
				Help:      "Duration of expired-entry sweeps in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		SweepRemovals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jassistant",
				Subsystem: "cache_admin",
				Name:      "sweep_removals_total",
				Help:      "Total number of files removed by expired-entry sweeps",
			},
			[]string{"cache"},
		),

		CacheInstances: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "jassistant",
				Subsystem: "cache_admin",
				Name:      "instances",
				Help:      "Number of named cache instances owned by the registry",
			},
		),
	}
}
