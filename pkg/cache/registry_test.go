package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishinsevens/Jassistant/errors"
	"github.com/fishinsevens/Jassistant/metric"
)

func testRegistryConfig(t *testing.T) Config {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.MemoryCapacity = 32
	cfg.SnapshotCapacity = 8
	cfg.Janitor.Enabled = false
	return cfg
}

func newTestRegistry(t *testing.T, cfg Config, options ...RegistryOption) *Registry {
	t.Helper()

	options = append(options, WithRegistryLogger(quietLogger()))
	r, err := NewRegistry(context.Background(), cfg, options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRegistryRejectsInvalidConfig(t *testing.T) {
	cfg := testRegistryConfig(t)
	cfg.MemoryCapacity = 0

	_, err := NewRegistry(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRegistryQuerySharesKVTiers(t *testing.T) {
	r := newTestRegistry(t, testRegistryConfig(t))

	// The query cache is a view over the generic memory and disk
	// instances, not a third copy of the data.
	assert.Same(t, r.Memory(), r.Query().Memory())
	assert.Same(t, r.Disk(), r.Query().Disk())
}

func TestRegistryDiskInstancesAreIsolated(t *testing.T) {
	cfg := testRegistryConfig(t)
	r := newTestRegistry(t, cfg)

	require.NoError(t, r.Disk().Set("shared-key", []byte("kv")))
	require.NoError(t, r.Artifact().Set("shared-key", []byte("artifact")))

	// Same key, different instance, different subdirectory.
	assert.Equal(t, filepath.Join(cfg.Dir, "kv"), r.Disk().Dir())
	assert.Equal(t, filepath.Join(cfg.Dir, "artifacts"), r.Artifact().Dir())

	got, ok := r.Disk().Get("shared-key")
	require.True(t, ok)
	assert.Equal(t, []byte("kv"), got)

	got, ok = r.Artifact().Get("shared-key")
	require.True(t, ok)
	assert.Equal(t, []byte("artifact"), got)
}

func TestRegistryArtifactCompression(t *testing.T) {
	cfg := testRegistryConfig(t)
	cfg.Compression = true
	r := newTestRegistry(t, cfg)

	payload := make([]byte, 8192)
	for i := range payload {
		payload[i] = byte('a' + i%4)
	}
	require.NoError(t, r.Artifact().Set("poster:42", payload))

	got, ok := r.Artifact().Get("poster:42")
	require.True(t, ok)
	assert.Equal(t, payload, got)

	// The backing file holds a compressed frame, not the raw payload.
	raw, err := os.ReadFile(entryPath(r.Artifact().Dir(), "poster:42"))
	require.NoError(t, err)
	assert.Less(t, len(raw), len(payload))
}

func TestRegistryComprehensiveStats(t *testing.T) {
	r := newTestRegistry(t, testRegistryConfig(t))

	require.NoError(t, r.Memory().Set("m", []byte("1")))
	_, _ = r.Memory().Get("m")
	require.NoError(t, r.Disk().Set("d", []byte("2")))
	require.NoError(t, r.Snapshot().Set("s", []byte("3")))
	r.Query().Set("SELECT 1", nil, []byte("4"))

	report := r.ComprehensiveStats()
	assert.Equal(t, int64(1), report.Memory.Hits)
	assert.GreaterOrEqual(t, report.Disk.Sets, int64(1))
	assert.Equal(t, int64(1), report.Snapshot.Sets)
	assert.Equal(t, int64(1), report.Query.Stores)
	assert.GreaterOrEqual(t, report.Disk.FileCount, int64(1))
}

func TestRegistryClearAll(t *testing.T) {
	r := newTestRegistry(t, testRegistryConfig(t))

	require.NoError(t, r.Memory().Set("m", []byte("1")))
	require.NoError(t, r.Disk().Set("d", []byte("2")))
	require.NoError(t, r.Artifact().Set("a", []byte("3")))
	require.NoError(t, r.Snapshot().Set("s", []byte("4")))

	counts, err := r.ClearAll(context.Background(), ScopeAll)
	require.NoError(t, err)

	assert.Equal(t, 1, counts[InstanceMemory])
	assert.Equal(t, 1, counts[InstanceDisk])
	assert.Equal(t, 1, counts[InstanceArtifact])
	assert.Equal(t, 1, counts[InstanceSnapshot])

	assert.Equal(t, 0, r.Memory().Size())
	assert.Equal(t, 0, r.Disk().Size())
	assert.Equal(t, 0, r.Artifact().Size())
	assert.Equal(t, 0, r.Snapshot().Size())
}

func TestRegistryClearMemoryScopeLeavesDiskAlone(t *testing.T) {
	r := newTestRegistry(t, testRegistryConfig(t))

	require.NoError(t, r.Memory().Set("m", []byte("1")))
	require.NoError(t, r.Snapshot().Set("s", []byte("2")))
	require.NoError(t, r.Disk().Set("d", []byte("3")))

	counts, err := r.ClearAll(context.Background(), InstanceMemory)
	require.NoError(t, err)

	assert.Equal(t, 1, counts[InstanceMemory])
	assert.Equal(t, 1, counts[InstanceSnapshot])
	assert.NotContains(t, counts, InstanceDisk)

	_, ok := r.Disk().Get("d")
	assert.True(t, ok)
}

func TestRegistryClearQueryScopeIsCoarse(t *testing.T) {
	r := newTestRegistry(t, testRegistryConfig(t))

	r.Query().Set("SELECT 1", nil, []byte("1"))
	require.NoError(t, r.Disk().Set("unrelated", []byte("2")))

	// Query invalidation clears the shared kv tiers wholesale, including
	// entries that were never written through the query cache.
	counts, err := r.ClearAll(context.Background(), InstanceQuery)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[InstanceQuery])

	_, ok := r.Disk().Get("unrelated")
	assert.False(t, ok)
}

func TestRegistryClearUnknownScope(t *testing.T) {
	r := newTestRegistry(t, testRegistryConfig(t))

	_, err := r.ClearAll(context.Background(), "everything-please")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRegistryCleanupAllExpired(t *testing.T) {
	r := newTestRegistry(t, testRegistryConfig(t))

	require.NoError(t, r.Disk().Set("stale", []byte("old")))
	require.NoError(t, r.Disk().Set("fresh", []byte("new")))
	require.NoError(t, r.Artifact().Set("kept", []byte("art")))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(entryPath(r.Disk().Dir(), "stale"), old, old))

	counts := r.CleanupAllExpired(context.Background())
	assert.Equal(t, 1, counts[InstanceDisk])
	assert.Equal(t, 0, counts[InstanceArtifact])

	_, ok := r.Disk().Get("fresh")
	assert.True(t, ok)
	_, ok = r.Artifact().Get("kept")
	assert.True(t, ok)
}

func TestRegistryExpiredScopeDelegatesToCleanup(t *testing.T) {
	r := newTestRegistry(t, testRegistryConfig(t))

	require.NoError(t, r.Disk().Set("stale", []byte("old")))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(entryPath(r.Disk().Dir(), "stale"), old, old))

	counts, err := r.ClearAll(context.Background(), ScopeExpired)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[InstanceDisk])
	assert.Equal(t, 0, counts[InstanceArtifact])
}

func TestRegistryCloseIsIdempotent(t *testing.T) {
	cfg := testRegistryConfig(t)
	r, err := NewRegistry(context.Background(), cfg, WithRegistryLogger(quietLogger()))
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}

func TestRegistryMetrics(t *testing.T) {
	metrics := metric.NewMetricsRegistry()
	r := newTestRegistry(t, testRegistryConfig(t), WithRegistryMetrics(metrics))

	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.CoreMetrics().CacheInstances))

	r.ComprehensiveStats()
	_, err := r.ClearAll(context.Background(), ScopeAll)
	require.NoError(t, err)
	r.CleanupAllExpired(context.Background())

	core := metrics.CoreMetrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(core.AdminOperations.WithLabelValues("stats")))
	assert.Equal(t, 1.0, testutil.ToFloat64(core.AdminOperations.WithLabelValues("clear_all")))

	// Per-instance tier metrics are registered under the cache_ prefix.
	require.NoError(t, r.Memory().Set("m", []byte("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Memory().metrics.sets))
}
