package cache

import (
	"log/slog"

	"github.com/fishinsevens/Jassistant/metric"
)

// Option configures cache behavior using the functional options pattern.
type Option[V any] func(*cacheOptions[V])

// cacheOptions holds internal configuration for cache instances.
// Stats are always collected; Prometheus export is opt-in.
type cacheOptions[V any] struct {
	// metricsReg, when set, exposes the tier's stats as Prometheus
	// metrics labeled with metricsPrefix.
	metricsReg    *metric.MetricsRegistry
	metricsPrefix string

	// evictCallback is called when entries are evicted.
	evictCallback EvictCallback[V]

	// logger receives absorbed-error reports from disk tiers.
	logger *slog.Logger
}

// WithMetrics enables Prometheus metrics export for cache statistics.
// Ignored when registry is nil or prefix is empty.
func WithMetrics[V any](registry *metric.MetricsRegistry, prefix string) Option[V] {
	return func(opts *cacheOptions[V]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithEvictionCallback sets a callback invoked with the key and value of
// every evicted entry. The callback runs outside the tier's lock.
func WithEvictionCallback[V any](callback EvictCallback[V]) Option[V] {
	return func(opts *cacheOptions[V]) {
		opts.evictCallback = callback
	}
}

// WithLogger sets the logger used for absorbed-error reports.
// Defaults to slog.Default().
func WithLogger[V any](logger *slog.Logger) Option[V] {
	return func(opts *cacheOptions[V]) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// applyOptions applies functional options to the default configuration.
func applyOptions[V any](options ...Option[V]) *cacheOptions[V] {
	opts := &cacheOptions[V]{
		logger: slog.Default(),
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
