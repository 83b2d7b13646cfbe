// Package cache holds compiled filters so that repeated filter texts skip
// lexing, parsing and rendering.
package cache

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultSize is the number of entries kept before the cache is reset.
const DefaultSize = 256

// Key identifies a compiled filter.
type Key struct {
	// Type is the name of the resource type the filter was parsed against.
	Type string
	// Target distinguishes renderings of the same text, e.g. "expr" or
	// "sql:postgres".
	Target string
	Text   string
}

// Sum returns the 64-bit digest the cache indexes entries by.
func (k Key) Sum() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(k.Type)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(k.Target)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(k.Text)
	return d.Sum64()
}

type entry[V any] struct {
	key   Key
	value V
}

// Cache is a bounded map from Key to V. When it reaches its capacity the
// entire map is replaced. Stored values are shared between callers and must
// not be modified.
//
// All methods are safe for concurrent use.
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[uint64]entry[V]
	max   int
}

// New creates a cache holding at most size entries. A size below 1 uses
// DefaultSize.
func New[V any](size int) *Cache[V] {
	if size < 1 {
		size = DefaultSize
	}
	return &Cache[V]{items: make(map[uint64]entry[V], size), max: size}
}

// Get returns the value stored for key. Entries whose digest collides with
// key but whose key differs are treated as misses.
func (c *Cache[V]) Get(key Key) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key.Sum()]
	c.mu.RUnlock()
	if !ok || e.key != key {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key.
func (c *Cache[V]) Put(key Key, value V) {
	sum := key.Sum()
	c.mu.Lock()
	if _, exists := c.items[sum]; !exists && len(c.items) >= c.max {
		c.items = make(map[uint64]entry[V], c.max)
	}
	c.items[sum] = entry[V]{key: key, value: value}
	c.mu.Unlock()
}

// Len returns the number of entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Reset removes every entry.
func (c *Cache[V]) Reset() {
	c.mu.Lock()
	c.items = make(map[uint64]entry[V], c.max)
	c.mu.Unlock()
}
