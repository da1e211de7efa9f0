package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fishinsevens/Jassistant/errors"
)

// cacheFileExt marks files owned by a DiskCache. Sweeps only ever touch
// files with this extension, so a misconfigured directory cannot lose
// foreign data.
const cacheFileExt = ".cache"

// DiskCache is a persistent, file-backed cache with per-entry age-based
// expiry. Keys are mapped to filesystem-safe names with SHA-256, values
// are serialized through the configured Codec, and an entry's timestamp
// is its file's modification time.
//
// Expiry is lazy: an expired entry is removed when Get encounters it or
// when CleanupExpired sweeps the directory. A cache that is never read
// and never swept can accumulate stale files; that trade-off is accepted
// in exchange for not tracking an index.
//
// All operations perform blocking filesystem I/O under the cache's
// mutex. I/O failures are absorbed: Get degrades to a miss, Set returns
// an error the orchestrating layers log and ignore.
type DiskCache[V any] struct {
	mu      sync.Mutex
	dir     string
	maxAge  time.Duration
	codec   Codec
	stats   *Statistics
	metrics *cacheMetrics
	logger  *slog.Logger
}

// NewDisk creates a disk cache rooted at dir. Entries older than maxAge
// are treated as expired. The directory is created if it does not exist.
// A nil codec defaults to JSONCodec.
//
// Two logical caches must not share a directory; keys from one would be
// visible to the other.
func NewDisk[V any](dir string, maxAge time.Duration, codec Codec, options ...Option[V]) (*DiskCache[V], error) {
	if dir == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "NewDisk",
			"cache directory cannot be empty")
	}
	if maxAge <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "NewDisk",
			fmt.Sprintf("max age must be positive, got %v", maxAge))
	}
	if codec == nil {
		codec = JSONCodec{}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapTransient(err, "cache", "NewDisk", "create cache directory")
	}

	opts := applyOptions(options...)

	var metrics *cacheMetrics
	if opts.metricsReg != nil {
		var err error
		metrics, err = newCacheMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "cache", "NewDisk", "metrics registration")
		}
	}

	return &DiskCache[V]{
		dir:     dir,
		maxAge:  maxAge,
		codec:   codec,
		stats:   NewStatistics(),
		metrics: metrics,
		logger:  opts.logger,
	}, nil
}

// miss records a miss in stats and metrics.
func (c *DiskCache[V]) miss() {
	c.stats.Miss()
	if c.metrics != nil {
		c.metrics.recordMiss()
	}
}

// refreshSizeMetric re-samples the on-disk file count into the size
// gauge. Caller must hold the mutex. Every path that adds or removes a
// cache file refreshes the gauge, keeping it in step with the LRU tier's.
func (c *DiskCache[V]) refreshSizeMetric() {
	if c.metrics == nil {
		return
	}
	files, _ := c.footprint()
	c.metrics.updateSize(int(files))
}

// path maps a key to its backing file. The mapping is deterministic and
// one-way; hashing avoids illegal-character and length issues in keys.
func (c *DiskCache[V]) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+cacheFileExt)
}

// Get retrieves a value by key. A missing file, an entry older than the
// cache's max age, or an undecodable blob are all misses; expired and
// corrupt files are removed on the way out so the cache self-heals.
func (c *DiskCache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.path(key)
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("Disk cache stat failed", "key", key, "error", err)
		}
		c.miss()
		return zero, false
	}

	if time.Since(info.ModTime()) > c.maxAge {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("Disk cache expired entry removal failed", "key", key, "error", err)
		}
		c.refreshSizeMetric()
		c.miss()
		return zero, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Warn("Disk cache read failed", "key", key, "error", err)
		c.miss()
		return zero, false
	}

	var value V
	if err := c.codec.Decode(data, &value); err != nil {
		// Corrupt or truncated entry: drop it so it cannot hurt again.
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			c.logger.Warn("Disk cache corrupt entry removal failed", "key", key, "error", rmErr)
		}
		c.logger.Warn("Disk cache entry corrupt, removed", "key", key, "error", err)
		c.refreshSizeMetric()
		c.miss()
		return zero, false
	}

	c.stats.Hit()
	if c.metrics != nil {
		c.metrics.recordHit()
	}
	return value, true
}

// Set serializes value and writes it to the key's backing file,
// overwriting any previous entry. The blob lands in a temp file first
// and is renamed into place, so readers never observe a partial write.
func (c *DiskCache[V]) Set(key string, value V) error {
	if err := validateKey(key); err != nil {
		return err
	}

	data, err := c.codec.Encode(value)
	if err != nil {
		return errors.WrapInvalid(err, "cache", "Set", "encode value")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.path(key)
	tmp := path + "." + uuid.NewString() + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.WrapTransient(err, "cache", "Set", "write cache file")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.WrapTransient(err, "cache", "Set", "rename cache file")
	}

	c.stats.Set()
	if c.metrics != nil {
		c.metrics.recordSet()
	}
	c.refreshSizeMetric()
	return nil
}

// Delete removes the entry for key. Returns true if a file was removed.
func (c *DiskCache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := os.Remove(c.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("Disk cache delete failed", "key", key, "error", err)
		}
		return false
	}

	c.stats.Delete()
	if c.metrics != nil {
		c.metrics.recordDelete()
	}
	c.refreshSizeMetric()
	return true
}

// Clear removes every cache file in the directory and returns how many
// were removed. Files without the cache extension are left alone.
// Clearing an already empty cache removes zero files and is not an error.
func (c *DiskCache[V]) Clear() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweep(func(string, os.FileInfo) bool { return true })
}

// CleanupExpired removes every entry older than the cache's max age,
// independent of access, and returns how many were removed.
func (c *DiskCache[V]) CleanupExpired() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweep(func(_ string, info os.FileInfo) bool {
		return time.Since(info.ModTime()) > c.maxAge
	})
}

// sweep removes every cache file matching the predicate. Caller must
// hold the mutex. Individual file errors are logged and skipped so one
// bad file cannot abort a sweep.
func (c *DiskCache[V]) sweep(shouldRemove func(path string, info os.FileInfo) bool) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, errors.WrapTransient(err, "cache", "sweep", "read cache directory")
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), cacheFileExt) {
			continue
		}

		path := filepath.Join(c.dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			c.logger.Warn("Disk cache sweep stat failed", "file", entry.Name(), "error", err)
			continue
		}
		if !shouldRemove(path, info) {
			continue
		}

		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				c.logger.Warn("Disk cache sweep removal failed", "file", entry.Name(), "error", err)
			}
			continue
		}
		removed++
		c.stats.Delete()
		if c.metrics != nil {
			c.metrics.recordDelete()
		}
	}

	c.refreshSizeMetric()
	return removed, nil
}

// Size returns the current number of cache files on disk.
func (c *DiskCache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	files, _ := c.footprint()
	return int(files)
}

// MaxAge returns the fixed expiry age for entries in this cache.
func (c *DiskCache[V]) MaxAge() time.Duration {
	return c.maxAge
}

// Dir returns the cache's backing directory.
func (c *DiskCache[V]) Dir() string {
	return c.dir
}

// Stats returns the cache's statistics tracker.
func (c *DiskCache[V]) Stats() *Statistics {
	return c.stats
}

// Summary returns a snapshot of the cache's statistics including the
// on-disk footprint at the time of the call.
func (c *DiskCache[V]) Summary() StatsSummary {
	c.mu.Lock()
	files, bytes := c.footprint()
	c.mu.Unlock()

	summary := c.stats.Summary()
	summary.CurrentSize = files
	summary.FileCount = files
	summary.SizeBytes = bytes
	return summary
}

// Close is a no-op: each operation opens and closes its own files.
func (c *DiskCache[V]) Close() error {
	return nil
}

// footprint scans the directory for cache files. Caller must hold the
// mutex. Errors are absorbed; a partially unreadable directory reports
// what could be counted.
func (c *DiskCache[V]) footprint() (files, bytes int64) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		c.logger.Warn("Disk cache footprint scan failed", "dir", c.dir, "error", err)
		return 0, 0
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), cacheFileExt) {
			continue
		}
		files++
		if info, err := entry.Info(); err == nil {
			bytes += info.Size()
		}
	}
	return files, bytes
}
