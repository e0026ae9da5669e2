// Package cache provides the small in-process LRU used by the object
// database to avoid re-inflating recently read objects.
package cache

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// Key identifies a cached entry. Any comparable value works; the
// object database uses plumbing.Hash.
type Key = lru.Key

// LRU is a mutex-guarded least-recently-used cache. The zero value is
// not usable; create one with New.
type LRU struct {
	mu      sync.Mutex
	entries *lru.Cache
}

// New returns an LRU evicting past maxEntries items. A non-positive
// maxEntries means no bound, leaving eviction to the caller.
func New(maxEntries int) *LRU {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &LRU{entries: lru.New(maxEntries)}
}

// Get returns the value stored under key, if any
func (c *LRU) Get(key Key) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Get(key)
}

// Put stores value under key, evicting the least recently used entry
// if the cache is at capacity
func (c *LRU) Put(key Key, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(key, value)
}

// Clear drops every entry
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Clear()
}

// Len returns how many entries are currently cached
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
