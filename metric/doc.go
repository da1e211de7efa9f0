// Package metric provides Prometheus metrics management for Jassistant.
//
// The MetricsRegistry owns a private prometheus.Registry and tracks every
// collector registered through it, keyed by component and metric name, so
// duplicate registrations fail fast with a classified error instead of a
// Prometheus panic.
//
// Core service-level metrics (admin operations, maintenance sweeps) are
// created once per registry and shared; per-cache metrics are registered
// by the caching subsystem when a cache instance opts in.
//
// The Server exposes the registry on an operator-facing HTTP endpoint via
// promhttp. Statistics carry no secrets and are safe to expose verbatim.
package metric
