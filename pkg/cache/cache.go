package cache

import (
	"github.com/fishinsevens/Jassistant/errors"
)

// Tier is the contract shared by every cache tier. Tiers are
// parameterized by value type V; keys are opaque strings.
//
// Get never returns an error: tier-internal failures are absorbed and
// reported as misses, per the subsystem's best-effort policy. Set may
// return an error so that orchestrating layers can log it, but callers
// are free to ignore it; a failed Set only costs a future miss.
type Tier[V any] interface {
	// Get retrieves a value by key. Returns the value and true on a hit,
	// the zero value and false on a miss.
	Get(key string) (V, bool)

	// Set stores a value under key, replacing any existing entry.
	Set(key string, value V) error

	// Delete removes an entry by key. Returns true if the key existed.
	Delete(key string) bool

	// Clear removes all entries and returns how many were removed.
	Clear() (int, error)

	// Size returns the current number of entries.
	Size() int

	// Stats returns the tier's statistics tracker.
	Stats() *Statistics

	// Close releases any resources held by the tier.
	Close() error
}

// EvictCallback is called when an entry is evicted from a tier.
type EvictCallback[V any] func(key string, value V)

// Both tiers satisfy the shared contract.
var (
	_ Tier[string] = (*LRUCache[string])(nil)
	_ Tier[string] = (*DiskCache[string])(nil)
)

// validateKey rejects keys that cannot address an entry.
func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "validateKey", "key cannot be empty")
	}
	return nil
}
