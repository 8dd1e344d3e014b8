package cache

import (
	"sync"
	"time"
)

// entry is a cached value plus its absolute expiry.
type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// TTL is a per-key, fixed-lifetime cache.
//
// Expiry is lazy: nothing runs in the background, a stale entry is dropped by
// the Get that finds it. There is no size bound; callers keep the key space small.
type TTL[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry[T]
	now     func() time.Time
}

// New creates a cache whose entries live for ttl after each Set.
func New[T any](ttl time.Duration) *TTL[T] {
	return &TTL[T]{
		ttl:     ttl,
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

// WithClock replaces the time source. Only meant for tests.
func (c *TTL[T]) WithClock(now func() time.Time) *TTL[T] {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

// Get returns the value for key. An expired entry is reported as a miss and evicted.
func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, overwriting any previous entry.
func (c *TTL[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[T]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Clear drops every entry.
func (c *TTL[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry[T])
}

// Len counts stored entries, stale ones included.
func (c *TTL[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
