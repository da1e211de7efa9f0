// Package cache implements the layered caching subsystem that fronts
// Jassistant's expensive, repeatable computations: database query
// results, derived image artifacts, and configuration snapshots.
//
// # Tiers
//
//   - LRUCache: bounded in-memory least-recently-used cache. Pure data
//     structure plus lock, no I/O, O(1) operations.
//   - DiskCache: persistent file-backed cache with per-entry age-based
//     expiry. Keys map to filesystem-safe names via SHA-256; values are
//     serialized through a pluggable Codec. Performs blocking file I/O.
//   - QueryCache: composes one LRUCache and one DiskCache into a
//     two-level read-through cache with promotion-on-hit and
//     write-through-on-set.
//   - Registry: owns the named cache instances used across the service
//     and exposes aggregate statistics and maintenance operations.
//
// # Best effort
//
// The cache degrades performance, never correctness. Disk I/O failures
// and corrupt entries are absorbed, logged, and surfaced as misses; a
// failing tier never fails the caller's primary computation path. The
// cache does not know how to compute a missing value: on a miss the
// caller produces the value externally and stores it back with Set.
//
// # Concurrency
//
// Each tier guards its state with its own mutex, held for the duration
// of a single operation. The QueryCache holds no lock of its own while
// delegating into tiers, so there is no nested-lock risk; concurrent
// callers may interleave between the memory check and the disk check,
// which at worst causes a redundant disk read. Statistics are recorded
// under the same synchronization as the operation they describe.
//
// # Usage
//
//	reg, err := cache.NewRegistry(ctx, cache.DefaultConfig())
//	if err != nil { ... }
//	defer reg.Close()
//
//	if rows, ok := reg.Query().Get(stmt, params); ok {
//		return rows // served from cache
//	}
//	rows := runQuery(stmt, params) // caller computes on miss
//	reg.Query().Set(stmt, params, rows)
package cache
