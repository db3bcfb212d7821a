// Package cache provides the short-TTL in-memory cache in front of every read
// path. Entries are validity-checked lazily on read and overwritten on the
// next write; nothing is evicted in the background.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the validity window applied when none is configured.
const DefaultTTL = 30 * time.Second

type entry struct {
	value    any
	insertAt time.Time
}

// Cache is a TTL-bounded key/value map safe for concurrent use. Construct one
// per service instance and inject it; there is no package-level cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

// New returns an empty cache with the given TTL. A non-positive TTL falls back
// to DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached value for key if it is still within the TTL window.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.insertAt) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

// Set unconditionally overwrites the entry for key.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, insertAt: c.now()}
	c.mu.Unlock()
}

// Invalidate removes every entry whose key matches the predicate.
func (c *Cache) Invalidate(match func(key string) bool) {
	c.mu.Lock()
	for key := range c.entries {
		if match(key) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// InvalidateAll clears the cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len reports the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
