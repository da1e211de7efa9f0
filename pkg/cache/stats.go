package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks cache performance counters for one tier. Counters
// are updated with atomics; a snapshot taken via Summary is internally
// consistent for the instant it is read.
//
// Invariant: Hits() + Misses() equals the number of Get calls issued
// against the owning tier since construction or the last Reset.
type Statistics struct {
	hits      int64
	misses    int64
	sets      int64
	deletes   int64
	evictions int64

	mu          sync.RWMutex
	startTime   time.Time
	currentSize int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Hit records a cache hit.
func (s *Statistics) Hit() {
	atomic.AddInt64(&s.hits, 1)
}

// Miss records a cache miss.
func (s *Statistics) Miss() {
	atomic.AddInt64(&s.misses, 1)
}

// Set records a write. For disk tiers this is the writes counter.
func (s *Statistics) Set() {
	atomic.AddInt64(&s.sets, 1)
}

// Delete records a removal.
func (s *Statistics) Delete() {
	atomic.AddInt64(&s.deletes, 1)
}

// Eviction records a capacity or expiry eviction.
func (s *Statistics) Eviction() {
	atomic.AddInt64(&s.evictions, 1)
}

// UpdateSize records the current number of entries.
func (s *Statistics) UpdateSize(size int64) {
	s.mu.Lock()
	s.currentSize = size
	s.mu.Unlock()
}

// Hits returns the total number of cache hits.
func (s *Statistics) Hits() int64 { return atomic.LoadInt64(&s.hits) }

// Misses returns the total number of cache misses.
func (s *Statistics) Misses() int64 { return atomic.LoadInt64(&s.misses) }

// Sets returns the total number of writes.
func (s *Statistics) Sets() int64 { return atomic.LoadInt64(&s.sets) }

// Deletes returns the total number of removals.
func (s *Statistics) Deletes() int64 { return atomic.LoadInt64(&s.deletes) }

// Evictions returns the total number of evictions.
func (s *Statistics) Evictions() int64 { return atomic.LoadInt64(&s.evictions) }

// CurrentSize returns the current number of entries.
func (s *Statistics) CurrentSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSize
}

// HitRatio returns the hit ratio in [0.0, 1.0]. Zero lookups yield 0.
func (s *Statistics) HitRatio() float64 {
	hits := s.Hits()
	total := hits + s.Misses()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// Uptime returns the time elapsed since construction or the last Reset.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset resets all counters to zero and restarts the uptime clock.
// The current entry count is preserved: entries do not disappear when
// counters are reset.
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.hits, 0)
	atomic.StoreInt64(&s.misses, 0)
	atomic.StoreInt64(&s.sets, 0)
	atomic.StoreInt64(&s.deletes, 0)
	atomic.StoreInt64(&s.evictions, 0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.mu.Unlock()
}

// StatsSummary is a JSON-safe snapshot of one tier's statistics,
// suitable for exposure on an operator dashboard.
type StatsSummary struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Sets          int64   `json:"sets"`
	Deletes       int64   `json:"deletes"`
	Evictions     int64   `json:"evictions"`
	TotalRequests int64   `json:"total_requests"`
	HitRatio      float64 `json:"hit_ratio"`
	CurrentSize   int64   `json:"current_size"`
	UptimeSeconds float64 `json:"uptime_seconds"`

	// Disk-backed tiers only: on-disk footprint at snapshot time.
	FileCount int64 `json:"file_count,omitempty"`
	SizeBytes int64 `json:"size_bytes,omitempty"`
}

// Summary returns a snapshot of all counters.
func (s *Statistics) Summary() StatsSummary {
	hits := s.Hits()
	misses := s.Misses()
	return StatsSummary{
		Hits:          hits,
		Misses:        misses,
		Sets:          s.Sets(),
		Deletes:       s.Deletes(),
		Evictions:     s.Evictions(),
		TotalRequests: hits + misses,
		HitRatio:      s.HitRatio(),
		CurrentSize:   s.CurrentSize(),
		UptimeSeconds: s.Uptime().Seconds(),
	}
}
