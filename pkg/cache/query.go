package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/fishinsevens/Jassistant/errors"
)

// QueryCache composes a memory tier and a disk tier into a two-level
// read-through cache for operation results: memory is checked first, a
// disk hit is promoted into memory, and writes go through to both tiers.
//
// The cache never computes a value. On a miss the caller runs the real
// operation (a database query, an image transform) and stores the result
// back with Set. Writes are best-effort: a failing tier is logged and
// skipped, never propagated, so a broken disk only costs hit rate.
//
// QueryCache holds no lock while delegating into its tiers; each tier is
// internally synchronized. Concurrent callers may interleave between the
// memory check and the disk check, which at worst causes a redundant
// disk read or a slightly stale promotion, never corruption.
type QueryCache[V any] struct {
	memory *LRUCache[V]
	disk   *DiskCache[V]
	stats  *QueryStats
	logger *slog.Logger
}

// NewQueryCache creates a read-through cache over the given tiers.
func NewQueryCache[V any](memory *LRUCache[V], disk *DiskCache[V], options ...Option[V]) (*QueryCache[V], error) {
	if memory == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "NewQueryCache",
			"memory tier cannot be nil")
	}
	if disk == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "NewQueryCache",
			"disk tier cannot be nil")
	}

	opts := applyOptions(options...)

	return &QueryCache[V]{
		memory: memory,
		disk:   disk,
		stats:  NewQueryStats(),
		logger: opts.logger,
	}, nil
}

// Key derives the deterministic cache key for an operation descriptor
// and its parameters. The same statement with the same parameters always
// produces the same key; different parameters produce different keys
// except under SHA-256 collision.
func Key(statement string, params []any) string {
	h := sha256.New()
	h.Write([]byte(statement))
	for _, p := range params {
		h.Write([]byte{0x1f}) // unit separator between parameters
		fmt.Fprintf(h, "%T:%v", p, p)
	}
	return "query:" + hex.EncodeToString(h.Sum(nil))
}

// Get looks up the result of statement+params, memory tier first, disk
// tier second. A disk hit is promoted into the memory tier. Returns the
// zero value and false when neither tier has the value; the caller then
// computes the result and stores it with Set.
func (q *QueryCache[V]) Get(statement string, params []any) (V, bool) {
	key := Key(statement, params)

	if value, ok := q.memory.Get(key); ok {
		q.stats.memoryHit()
		return value, true
	}

	if value, ok := q.disk.Get(key); ok {
		// Promote so the next lookup avoids disk entirely.
		if err := q.memory.Set(key, value); err != nil {
			q.logger.Warn("Query cache promotion failed", "key", key, "error", err)
		}
		q.stats.diskHit()
		return value, true
	}

	q.stats.miss()
	var zero V
	return zero, false
}

// Set stores the result of statement+params in both tiers
// (write-through). Tier failures are logged, not propagated: the
// caller's computation already succeeded and a failed cache write must
// not undo that.
func (q *QueryCache[V]) Set(statement string, params []any, value V) {
	key := Key(statement, params)

	if err := q.memory.Set(key, value); err != nil {
		q.logger.Warn("Query cache memory write failed", "key", key, "error", err)
	}
	if err := q.disk.Set(key, value); err != nil {
		q.logger.Warn("Query cache disk write failed", "key", key, "error", err)
	}
	q.stats.store()
}

// Invalidate clears the entire cache, both tiers, and returns the number
// of entries removed. The domain label only annotates the log line:
// invalidation is deliberately coarse, there is no per-key or per-table
// selectivity.
func (q *QueryCache[V]) Invalidate(domain string) int {
	removed, err := q.memory.Clear()
	if err != nil {
		q.logger.Warn("Query cache memory clear failed", "domain", domain, "error", err)
	}

	diskRemoved, err := q.disk.Clear()
	if err != nil {
		q.logger.Warn("Query cache disk clear failed", "domain", domain, "error", err)
	}
	removed += diskRemoved

	q.logger.Info("Query cache invalidated", "domain", domain, "removed", removed)
	return removed
}

// Memory returns the underlying memory tier.
func (q *QueryCache[V]) Memory() *LRUCache[V] {
	return q.memory
}

// Disk returns the underlying disk tier.
func (q *QueryCache[V]) Disk() *DiskCache[V] {
	return q.disk
}

// Stats returns the orchestrator-level statistics tracker.
func (q *QueryCache[V]) Stats() *QueryStats {
	return q.stats
}

// QueryStats tracks orchestrator-level counters: which tier served each
// lookup and how many results were stored.
//
// Invariant: MemoryHits() + DiskHits() + Misses() equals the number of
// Get calls issued since construction or the last Reset.
type QueryStats struct {
	memoryHits int64
	diskHits   int64
	misses     int64
	stores     int64
}

// NewQueryStats creates a new orchestrator statistics tracker.
func NewQueryStats() *QueryStats {
	return &QueryStats{}
}

func (s *QueryStats) memoryHit() { atomic.AddInt64(&s.memoryHits, 1) }
func (s *QueryStats) diskHit()   { atomic.AddInt64(&s.diskHits, 1) }
func (s *QueryStats) miss()      { atomic.AddInt64(&s.misses, 1) }
func (s *QueryStats) store()     { atomic.AddInt64(&s.stores, 1) }

// MemoryHits returns the number of lookups served by the memory tier.
func (s *QueryStats) MemoryHits() int64 { return atomic.LoadInt64(&s.memoryHits) }

// DiskHits returns the number of lookups served by the disk tier.
func (s *QueryStats) DiskHits() int64 { return atomic.LoadInt64(&s.diskHits) }

// Misses returns the number of lookups neither tier could serve.
func (s *QueryStats) Misses() int64 { return atomic.LoadInt64(&s.misses) }

// Stores returns the number of results written through Set.
func (s *QueryStats) Stores() int64 { return atomic.LoadInt64(&s.stores) }

// Reset resets all counters to zero.
func (s *QueryStats) Reset() {
	atomic.StoreInt64(&s.memoryHits, 0)
	atomic.StoreInt64(&s.diskHits, 0)
	atomic.StoreInt64(&s.misses, 0)
	atomic.StoreInt64(&s.stores, 0)
}

// QuerySummary is a JSON-safe snapshot of orchestrator statistics.
type QuerySummary struct {
	MemoryHits    int64   `json:"memory_hits"`
	DiskHits      int64   `json:"disk_hits"`
	Misses        int64   `json:"misses"`
	Stores        int64   `json:"stores"`
	TotalRequests int64   `json:"total_requests"`
	HitRatio      float64 `json:"hit_ratio"`
}

// Summary returns a snapshot of all counters.
func (s *QueryStats) Summary() QuerySummary {
	memoryHits := s.MemoryHits()
	diskHits := s.DiskHits()
	misses := s.Misses()
	total := memoryHits + diskHits + misses

	ratio := 0.0
	if total > 0 {
		ratio = float64(memoryHits+diskHits) / float64(total)
	}

	return QuerySummary{
		MemoryHits:    memoryHits,
		DiskHits:      diskHits,
		Misses:        misses,
		Stores:        s.Stores(),
		TotalRequests: total,
		HitRatio:      ratio,
	}
}
