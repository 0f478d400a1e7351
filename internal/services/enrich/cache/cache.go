// Package cache holds the process wide content and profile caches used by enrichment
package cache

import (
	"sync"

	"zaplens/internal/core/receipt"
)

// Cache is a bounded map that evicts the oldest insert first
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]V
	order []string
	max   int
}

// ContentCache holds resolved notes and articles by event id
type ContentCache = Cache[receipt.Content]

// ProfileCache holds profile metadata by pubkey
type ProfileCache = Cache[receipt.Profile]

// New creates a cache holding at most capacity entries; capacity < 1 means unbounded
func New[V any](capacity int) *Cache[V] {
	return &Cache[V]{items: map[string]V{}, max: capacity}
}

// Get returns the cached value for key
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

// Put stores v, replacing any value under key without refreshing its age
func (c *Cache[V]) Put(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; !ok {
		c.order = append(c.order, key)
	}
	c.items[key] = v
	for c.max > 0 && len(c.items) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
}

// Missing returns the keys not present, keeping input order
func (c *Cache[V]) Missing(keys []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for _, k := range keys {
		if _, ok := c.items[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// Len returns the number of cached entries
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
