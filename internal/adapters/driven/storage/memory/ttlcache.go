package memory

import (
	"sync"
	"time"

	"github.com/custodia-labs/docflow-cli/internal/core/ports/driven"
)

// Ensure TTLCache implements the interface.
var _ driven.Cache[string] = (*TTLCache[string])(nil)

type ttlEntry[V any] struct {
	value  V
	stored time.Time
}

// TTLCache is a keyed store whose entries expire ttl after Set.
// Expired entries are removed lazily on Get; there is no background sweep.
type TTLCache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]ttlEntry[V]
}

// NewTTLCache creates a cache with the given time-to-live.
func NewTTLCache[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]ttlEntry[V]),
	}
}

// WithClock replaces the time source. Used by tests.
func (c *TTLCache[V]) WithClock(now func() time.Time) *TTLCache[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Set stores value under key, restarting its expiry.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = ttlEntry[V]{value: value, stored: c.now()}
}

// Get returns the value under key if it has not expired.
// An expired entry is removed.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.now().Sub(entry.stored) > c.ttl {
		delete(c.entries, key)
		return zero, false
	}
	return entry.value, true
}

// Invalidate removes key.
func (c *TTLCache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]ttlEntry[V])
}

// Len returns the number of stored entries, expired or not.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
