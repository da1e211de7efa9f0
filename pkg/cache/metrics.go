package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fishinsevens/Jassistant/metric"
)

// cacheMetrics holds the Prometheus collectors for one cache tier.
// Counters are incremented alongside the tier's Statistics so both views
// stay in agreement.
type cacheMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	sets      prometheus.Counter
	deletes   prometheus.Counter
	evictions prometheus.Counter
	size      prometheus.Gauge
}

// newCacheMetrics creates and registers tier metrics with the registry.
// The prefix identifies the cache instance (e.g. "cache_memory").
func newCacheMetrics(registry *metric.MetricsRegistry, prefix string) (*cacheMetrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "jassistant",
			Subsystem:   "cache",
			Name:        name,
			ConstLabels: prometheus.Labels{"instance": prefix},
			Help:        help,
		})
	}

	m := &cacheMetrics{
		hits:      counter("hits_total", "Total number of cache hits"),
		misses:    counter("misses_total", "Total number of cache misses"),
		sets:      counter("sets_total", "Total number of cache writes"),
		deletes:   counter("deletes_total", "Total number of cache deletes"),
		evictions: counter("evictions_total", "Total number of cache evictions"),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "jassistant",
			Subsystem:   "cache",
			Name:        "size",
			ConstLabels: prometheus.Labels{"instance": prefix},
			Help:        "Current number of entries in the cache",
		}),
	}

	registrations := []struct {
		name      string
		collector prometheus.Counter
	}{
		{"hits", m.hits},
		{"misses", m.misses},
		{"sets", m.sets},
		{"deletes", m.deletes},
		{"evictions", m.evictions},
	}
	for _, reg := range registrations {
		if err := registry.RegisterCounter(prefix, reg.name, reg.collector); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterGauge(prefix, "size", m.size); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *cacheMetrics) recordHit()      { m.hits.Inc() }
func (m *cacheMetrics) recordMiss()     { m.misses.Inc() }
func (m *cacheMetrics) recordSet()      { m.sets.Inc() }
func (m *cacheMetrics) recordDelete()   { m.deletes.Inc() }
func (m *cacheMetrics) recordEviction() { m.evictions.Inc() }

func (m *cacheMetrics) updateSize(size int) { m.size.Set(float64(size)) }
