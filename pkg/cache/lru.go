package cache

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/fishinsevens/Jassistant/errors"
)

// lruEntry is the value stored in each list element.
type lruEntry[V any] struct {
	key   string
	value V
}

// LRUCache is a bounded, thread-safe least-recently-used cache. It is the
// memory tier of the subsystem: a pure data structure plus lock, no I/O.
//
// Capacity is fixed at construction and never exceeded. Insertion order
// is the initial recency order, so a key never re-accessed after insert
// is evicted before one that has been.
type LRUCache[V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = most recently used
	stats    *Statistics
	metrics  *cacheMetrics
	evictFn  EvictCallback[V]
}

// NewLRU creates an LRU cache holding at most capacity entries.
// A capacity of zero or less is a configuration error.
func NewLRU[V any](capacity int, options ...Option[V]) (*LRUCache[V], error) {
	if capacity <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "NewLRU",
			fmt.Sprintf("capacity must be positive, got %d", capacity))
	}

	opts := applyOptions(options...)

	var metrics *cacheMetrics
	if opts.metricsReg != nil {
		var err error
		metrics, err = newCacheMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "cache", "NewLRU", "metrics registration")
		}
	}

	return &LRUCache[V]{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		stats:    NewStatistics(),
		metrics:  metrics,
		evictFn:  opts.evictCallback,
	}, nil
}

// Get retrieves a value by key and marks it most recently used.
// Recency is unaffected on a miss.
func (c *LRUCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, exists := c.items[key]
	if !exists {
		c.stats.Miss()
		if c.metrics != nil {
			c.metrics.recordMiss()
		}
		var zero V
		return zero, false
	}

	c.order.MoveToFront(element)
	c.stats.Hit()
	if c.metrics != nil {
		c.metrics.recordHit()
	}
	return element.Value.(*lruEntry[V]).value, true
}

// Set stores a value under key and marks it most recently used. If the
// key is new and the cache is full, the least recently used entry is
// evicted first; capacity is never exceeded.
func (c *LRUCache[V]) Set(key string, value V) error {
	if err := validateKey(key); err != nil {
		return err
	}

	var evicted *lruEntry[V]

	c.mu.Lock()
	if element, exists := c.items[key]; exists {
		element.Value.(*lruEntry[V]).value = value
		c.order.MoveToFront(element)
	} else {
		if len(c.items) >= c.capacity {
			evicted = c.evictOldest()
		}
		c.items[key] = c.order.PushFront(&lruEntry[V]{key: key, value: value})
	}

	c.stats.Set()
	c.stats.UpdateSize(int64(len(c.items)))
	if c.metrics != nil {
		c.metrics.recordSet()
		c.metrics.updateSize(len(c.items))
	}
	c.mu.Unlock()

	// Callback runs outside the lock so it may safely re-enter the cache.
	if evicted != nil && c.evictFn != nil {
		c.evictFn(evicted.key, evicted.value)
	}
	return nil
}

// Delete removes an entry by key. Returns true if the key existed.
func (c *LRUCache[V]) Delete(key string) bool {
	c.mu.Lock()
	element, exists := c.items[key]
	if !exists {
		c.mu.Unlock()
		return false
	}

	entry := element.Value.(*lruEntry[V])
	delete(c.items, entry.key)
	c.order.Remove(element)

	c.stats.Delete()
	c.stats.UpdateSize(int64(len(c.items)))
	if c.metrics != nil {
		c.metrics.recordDelete()
		c.metrics.updateSize(len(c.items))
	}
	c.mu.Unlock()
	return true
}

// Clear removes all entries and returns how many were removed.
// Calling Clear on an empty cache removes zero entries and is not an error.
func (c *LRUCache[V]) Clear() (int, error) {
	c.mu.Lock()
	removed := len(c.items)
	c.items = make(map[string]*list.Element)
	c.order.Init()

	c.stats.UpdateSize(0)
	if c.metrics != nil {
		c.metrics.updateSize(0)
	}
	c.mu.Unlock()
	return removed, nil
}

// Size returns the current number of entries.
func (c *LRUCache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the fixed maximum number of entries.
func (c *LRUCache[V]) Capacity() int {
	return c.capacity
}

// Keys returns all keys in recency order, most recently used first.
func (c *LRUCache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for element := c.order.Front(); element != nil; element = element.Next() {
		keys = append(keys, element.Value.(*lruEntry[V]).key)
	}
	return keys
}

// Stats returns the cache's statistics tracker.
func (c *LRUCache[V]) Stats() *Statistics {
	return c.stats
}

// Summary returns a snapshot of the cache's statistics.
func (c *LRUCache[V]) Summary() StatsSummary {
	return c.stats.Summary()
}

// Close is a no-op: the LRU cache holds no external resources.
func (c *LRUCache[V]) Close() error {
	return nil
}

// evictOldest removes and returns the least recently used entry.
// Caller must hold the mutex.
func (c *LRUCache[V]) evictOldest() *lruEntry[V] {
	element := c.order.Back()
	if element == nil {
		return nil
	}

	entry := element.Value.(*lruEntry[V])
	delete(c.items, entry.key)
	c.order.Remove(element)

	c.stats.Eviction()
	if c.metrics != nil {
		c.metrics.recordEviction()
	}
	return entry
}
