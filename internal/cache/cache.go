// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/larder/internal/metrics"
)

// DefaultCleanupInterval is how often Serve sweeps expired entries.
const DefaultCleanupInterval = time.Minute

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a thread-safe map whose entries expire after a TTL.
type Cache[K comparable, V any] struct {
	name string
	ttl  time.Duration

	mu      sync.RWMutex
	entries map[K]entry[V]
	stats   Stats

	cleanupInterval time.Duration
	now             func() time.Time
}

// Stats tracks cache performance.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// New creates a cache whose entries live for ttl. name labels the cache in
// Prometheus metrics.
//
// Expired entries are dropped lazily on Get and in bulk by Serve, which is
// meant to run under the supervisor.
//
//	links := cache.New[string, int64]("short_links", 10*time.Minute)
//	links.Set("Ab3dE9xQ", 42)
//	if id, ok := links.Get("Ab3dE9xQ"); ok {
//	    // use id
//	}
func New[K comparable, V any](name string, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		name:            name,
		ttl:             ttl,
		entries:         make(map[K]entry[V]),
		stats:           Stats{LastCleanup: time.Now()},
		cleanupInterval: DefaultCleanupInterval,
		now:             time.Now,
	}
}

// Get returns the value for key if present and not expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have refreshed it.
		if cur, still := c.entries[key]; still && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
			c.stats.Evictions++
			c.stats.TotalKeys = int64(len(c.entries))
		}
		c.mu.Unlock()
		ok = false
	}

	if !ok {
		c.recordMiss()
		var zero V
		return zero, false
	}
	c.recordHit()
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL.
func (c *Cache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
	n := len(c.entries)
	c.stats.TotalKeys = int64(n)
	c.mu.Unlock()

	metrics.SetCacheEntries(c.name, n)
}

// Delete removes key. Removing a missing key is a no-op.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.stats.Evictions++
	}
	n := len(c.entries)
	c.stats.TotalKeys = int64(n)
	c.mu.Unlock()

	metrics.SetCacheEntries(c.name, n)
}

// DeleteFunc removes every entry for which match returns true and reports
// how many were removed.
func (c *Cache[K, V]) DeleteFunc(match func(K, V) bool) int {
	c.mu.Lock()
	removed := 0
	for k, e := range c.entries {
		if match(k, e.value) {
			delete(c.entries, k)
			removed++
		}
	}
	c.stats.Evictions += int64(removed)
	n := len(c.entries)
	c.stats.TotalKeys = int64(n)
	c.mu.Unlock()

	metrics.SetCacheEntries(c.name, n)
	return removed
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.stats.Evictions += int64(len(c.entries))
	c.entries = make(map[K]entry[V])
	c.stats.TotalKeys = 0
	c.mu.Unlock()

	metrics.SetCacheEntries(c.name, 0)
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetStats returns a snapshot of the statistics.
func (c *Cache[K, V]) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// HitRate returns hits as a percentage of lookups.
func (c *Cache[K, V]) HitRate() float64 {
	s := c.GetStats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Serve sweeps expired entries until ctx is canceled. It implements
// suture.Service.
func (c *Cache[K, V]) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// String names the cleanup service in supervisor logs.
func (c *Cache[K, V]) String() string {
	return "cache-cleanup:" + c.name
}

func (c *Cache[K, V]) cleanup() int {
	now := c.now()
	c.mu.Lock()
	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	c.stats.Evictions += int64(removed)
	n := len(c.entries)
	c.stats.TotalKeys = int64(n)
	c.stats.LastCleanup = now
	c.mu.Unlock()

	metrics.SetCacheEntries(c.name, n)
	return removed
}

func (c *Cache[K, V]) recordHit() {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
	metrics.RecordCacheHit(c.name)
}

func (c *Cache[K, V]) recordMiss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
	metrics.RecordCacheMiss(c.name)
}
