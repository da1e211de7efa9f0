package cache

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fishinsevens/Jassistant/errors"
	"github.com/fishinsevens/Jassistant/metric"
)

// Named cache instances owned by the Registry. The set is fixed at
// construction; instances are not created or removed at runtime.
const (
	// InstanceMemory is the generic in-memory key/value cache.
	InstanceMemory = "memory"
	// InstanceDisk is the generic persistent key/value cache.
	InstanceDisk = "disk"
	// InstanceQuery is the read-through result cache over memory+disk.
	InstanceQuery = "query"
	// InstanceArtifact is the long-TTL disk cache for derived content.
	InstanceArtifact = "artifact"
	// InstanceSnapshot is the memory-only cache for configuration
	// snapshots and other small, frequently changing data.
	InstanceSnapshot = "snapshot"
)

// Clear scopes accepted by ClearAll, in addition to the instance names
// above.
const (
	// ScopeAll clears every instance.
	ScopeAll = "all"
	// ScopeExpired removes only expired entries from disk-backed
	// instances.
	ScopeExpired = "expired"
)

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	metrics *metric.MetricsRegistry
	logger  *slog.Logger
}

// WithRegistryMetrics exposes registry and per-instance statistics as
// Prometheus metrics.
func WithRegistryMetrics(registry *metric.MetricsRegistry) RegistryOption {
	return func(opts *registryOptions) {
		opts.metrics = registry
	}
}

// WithRegistryLogger sets the logger for the registry and every instance
// it owns. Defaults to slog.Default().
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(opts *registryOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// Registry owns the named cache instances used across the service and
// exposes aggregate statistics and maintenance operations over them. It
// holds no cached values itself.
//
// A Registry is constructed once at process start and passed by
// reference to every consumer; there is no implicit global instance.
type Registry struct {
	memory   *LRUCache[[]byte]
	disk     *DiskCache[[]byte]
	query    *QueryCache[[]byte]
	artifact *DiskCache[[]byte]
	snapshot *LRUCache[[]byte]

	core    *metric.Metrics // nil when metrics are disabled
	logger  *slog.Logger
	janitor *janitor
	closed  atomic.Bool
}

// NewRegistry builds every named instance from cfg. The generic memory
// and disk tiers are shared with the query cache, mirroring how query
// results flow through the service: a result cached by the query layer
// is the same entry an operator sees in the kv pair's statistics.
func NewRegistry(ctx context.Context, cfg Config, options ...RegistryOption) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := &registryOptions{logger: slog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	logger := opts.logger

	tierOpts := func(instance string) []Option[[]byte] {
		o := []Option[[]byte]{WithLogger[[]byte](logger)}
		if opts.metrics != nil {
			o = append(o, WithMetrics[[]byte](opts.metrics, "cache_"+instance))
		}
		return o
	}

	memory, err := NewLRU[[]byte](cfg.MemoryCapacity, tierOpts(InstanceMemory)...)
	if err != nil {
		return nil, err
	}

	disk, err := NewDisk[[]byte](filepath.Join(cfg.Dir, "kv"), cfg.MaxAge.Std(),
		RawCodec{}, tierOpts(InstanceDisk)...)
	if err != nil {
		return nil, err
	}

	query, err := NewQueryCache(memory, disk, WithLogger[[]byte](logger))
	if err != nil {
		return nil, err
	}

	var artifactCodec Codec = RawCodec{}
	if cfg.Compression {
		artifactCodec, err = NewZstdCodec(RawCodec{})
		if err != nil {
			return nil, err
		}
	}
	artifact, err := NewDisk[[]byte](filepath.Join(cfg.Dir, "artifacts"),
		cfg.ArtifactMaxAge.Std(), artifactCodec, tierOpts(InstanceArtifact)...)
	if err != nil {
		return nil, err
	}

	snapshot, err := NewLRU[[]byte](cfg.SnapshotCapacity, tierOpts(InstanceSnapshot)...)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		memory:   memory,
		disk:     disk,
		query:    query,
		artifact: artifact,
		snapshot: snapshot,
		logger:   logger,
	}

	if opts.metrics != nil {
		r.core = opts.metrics.CoreMetrics()
		r.core.CacheInstances.Set(5)
	}

	if cfg.Janitor.Enabled {
		r.janitor = newJanitor(r, cfg.Janitor, logger)
		r.janitor.start(ctx)
	}

	logger.Info("Cache registry initialized",
		"dir", cfg.Dir,
		"memory_capacity", cfg.MemoryCapacity,
		"max_age", cfg.MaxAge.Std(),
		"artifact_max_age", cfg.ArtifactMaxAge.Std(),
		"janitor", cfg.Janitor.Enabled)
	return r, nil
}

// Memory returns the generic in-memory key/value cache.
func (r *Registry) Memory() *LRUCache[[]byte] { return r.memory }

// Disk returns the generic persistent key/value cache.
func (r *Registry) Disk() *DiskCache[[]byte] { return r.disk }

// Query returns the read-through result cache.
func (r *Registry) Query() *QueryCache[[]byte] { return r.query }

// Artifact returns the long-TTL cache for derived content.
func (r *Registry) Artifact() *DiskCache[[]byte] { return r.artifact }

// Snapshot returns the memory-only configuration snapshot cache.
func (r *Registry) Snapshot() *LRUCache[[]byte] { return r.snapshot }

// Report merges the statistics of every owned instance. It carries no
// secrets and is safe to return verbatim over an operator API.
type Report struct {
	Memory   StatsSummary `json:"memory_cache"`
	Disk     StatsSummary `json:"disk_cache"`
	Query    QuerySummary `json:"query_cache"`
	Artifact StatsSummary `json:"artifact_cache"`
	Snapshot StatsSummary `json:"snapshot_cache"`
}

// ComprehensiveStats returns a merged statistics report across all
// owned instances.
func (r *Registry) ComprehensiveStats() Report {
	r.admin("stats")
	return Report{
		Memory:   r.memory.Summary(),
		Disk:     r.disk.Summary(),
		Query:    r.query.Stats().Summary(),
		Artifact: r.artifact.Summary(),
		Snapshot: r.snapshot.Summary(),
	}
}

// ClearAll clears cached entries according to scope and returns the
// number of entries removed per instance. Scope is one of ScopeAll,
// InstanceMemory, InstanceDisk, ScopeExpired, or a named instance
// (InstanceQuery, InstanceArtifact, InstanceSnapshot). InstanceMemory
// and InstanceDisk double as "memory tiers only" and "disk tiers only".
func (r *Registry) ClearAll(ctx context.Context, scope string) (map[string]int, error) {
	r.admin("clear_" + scope)
	counts := make(map[string]int)

	clearMemory := func() {
		n, _ := r.memory.Clear()
		counts[InstanceMemory] = n
		n, _ = r.snapshot.Clear()
		counts[InstanceSnapshot] = n
	}
	clearDisk := func() {
		counts[InstanceDisk] = r.clearDiskTier(InstanceDisk, r.disk)
		counts[InstanceArtifact] = r.clearDiskTier(InstanceArtifact, r.artifact)
	}

	switch scope {
	case ScopeAll:
		clearMemory()
		clearDisk()
	case InstanceMemory:
		clearMemory()
	case InstanceDisk:
		clearDisk()
	case ScopeExpired:
		for name, n := range r.CleanupAllExpired(ctx) {
			counts[name] = n
		}
	case InstanceQuery:
		counts[InstanceQuery] = r.query.Invalidate(ScopeAll)
	case InstanceArtifact:
		counts[InstanceArtifact] = r.clearDiskTier(InstanceArtifact, r.artifact)
	case InstanceSnapshot:
		n, _ := r.snapshot.Clear()
		counts[InstanceSnapshot] = n
	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "cache", "ClearAll",
			fmt.Sprintf("unknown scope %q", scope))
	}

	r.logger.Info("Cache clear completed", "scope", scope, "counts", counts)
	return counts, nil
}

// clearDiskTier clears one disk-backed instance, absorbing errors.
func (r *Registry) clearDiskTier(name string, tier *DiskCache[[]byte]) int {
	n, err := tier.Clear()
	if err != nil {
		r.logger.Warn("Cache clear failed", "instance", name, "error", err)
	}
	return n
}

// CleanupAllExpired sweeps every disk-backed instance concurrently,
// removing entries past their max age, and returns the number removed
// per instance. Sweep failures are absorbed and logged; the instance
// reports zero removals.
func (r *Registry) CleanupAllExpired(ctx context.Context) map[string]int {
	r.admin("cleanup_expired")
	start := time.Now()

	targets := []struct {
		name string
		tier *DiskCache[[]byte]
	}{
		{InstanceDisk, r.disk},
		{InstanceArtifact, r.artifact},
	}

	var mu sync.Mutex
	counts := make(map[string]int, len(targets))

	g, _ := errgroup.WithContext(ctx)
	for _, target := range targets {
		target := target
		g.Go(func() error {
			n, err := target.tier.CleanupExpired()
			if err != nil {
				r.logger.Warn("Expired-entry sweep failed", "instance", target.name, "error", err)
			}
			mu.Lock()
			counts[target.name] = n
			mu.Unlock()
			if r.core != nil {
				r.core.SweepRemovals.WithLabelValues(target.name).Add(float64(n))
			}
			return nil
		})
	}
	_ = g.Wait() // sweep errors are absorbed above

	if r.core != nil {
		r.core.SweepDuration.Observe(time.Since(start).Seconds())
	}
	return counts
}

// Close stops the janitor and shuts down every owned instance. Close is
// idempotent; only the first call does any work.
func (r *Registry) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	if r.janitor != nil {
		r.janitor.stop()
	}

	for _, c := range []interface{ Close() error }{
		r.memory, r.disk, r.artifact, r.snapshot,
	} {
		if err := c.Close(); err != nil {
			r.logger.Warn("Cache instance close failed", "error", err)
		}
	}
	return nil
}

// admin records an operator-facing operation when metrics are enabled.
func (r *Registry) admin(operation string) {
	if r.core != nil {
		r.core.AdminOperations.WithLabelValues(operation).Inc()
	}
}
