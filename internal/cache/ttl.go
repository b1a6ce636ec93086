package cache

import (
	"strings"
	"sync"
	"time"
)

// TTL is a small in-memory response cache. Keys are strings, values are
// []byte (pre-encoded JSON). Entries expire after a fixed duration and are
// evicted lazily on access and on write.
type TTL struct {
	mu    sync.RWMutex
	items map[string]item
	ttl   time.Duration
}

type item struct {
	data []byte
	exp  time.Time
}

func New(ttl time.Duration) *TTL {
	return &TTL{items: make(map[string]item), ttl: ttl}
}

// Get returns the value for key if present and not expired. Otherwise nil.
func (c *TTL) Get(key string) []byte {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	if it.exp.Before(time.Now()) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil
	}
	return it.data
}

// Set stores the value for key and sweeps any expired entries.
func (c *TTL) Set(key string, value []byte) {
	now := time.Now()
	c.mu.Lock()
	for k, v := range c.items {
		if v.exp.Before(now) {
			delete(c.items, k)
		}
	}
	c.items[key] = item{data: value, exp: now.Add(c.ttl)}
	c.mu.Unlock()
}

// Delete removes the key.
func (c *TTL) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// DeletePrefix removes all keys that start with prefix (e.g. "patients:" to
// invalidate every cached patient listing after a mutation).
func (c *TTL) DeletePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}
