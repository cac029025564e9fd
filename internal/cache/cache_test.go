// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/larder/internal/metrics"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T, ttl time.Duration) (*Cache[string, int64], *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string, int64](t.Name(), ttl)
	c.now = clock.Now
	return c, clock
}

func TestCacheBasicOperations(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v", v, ok)
	}
	if v, ok := c.Get("b"); ok || v != 0 {
		t.Errorf("Get(b) = %d, %v; want zero, false", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("overwrite: Get(a) = %d", v)
	}

	c.Delete("a")
	c.Delete("missing")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted key still present")
	}
}

func TestCacheExpiration(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)

	c.Set("short", 1)
	c.SetWithTTL("long", 2, time.Hour)

	clock.Advance(30 * time.Second)
	if _, ok := c.Get("short"); !ok {
		t.Error("entry expired early")
	}

	clock.Advance(31 * time.Second)
	if _, ok := c.Get("short"); ok {
		t.Error("entry should have expired")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("custom TTL entry expired early")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after lazy eviction", c.Len())
	}
}

func TestCacheCleanup(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), int64(i))
	}
	c.SetWithTTL("keep", 9, time.Hour)

	clock.Advance(2 * time.Minute)
	if removed := c.cleanup(); removed != 5 {
		t.Errorf("cleanup() removed %d, want 5", removed)
	}
	stats := c.GetStats()
	if stats.TotalKeys != 1 || stats.Evictions != 5 || !stats.LastCleanup.Equal(clock.Now()) {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCacheDeleteFuncAndClear(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 1)

	if n := c.DeleteFunc(func(_ string, v int64) bool { return v == 1 }); n != 2 {
		t.Errorf("DeleteFunc() = %d, want 2", n)
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("unmatched entry removed")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}

func TestCacheStatsAndMetrics(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	name := t.Name()

	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("b")

	stats := c.GetStats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if rate := c.HitRate(); rate < 66.6 || rate > 66.7 {
		t.Errorf("HitRate() = %f", rate)
	}

	if got := testutil.ToFloat64(metrics.CacheHits.WithLabelValues(name)); got != 2 {
		t.Errorf("cache_hits_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.CacheMisses.WithLabelValues(name)); got != 1 {
		t.Errorf("cache_misses_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.CacheEntries.WithLabelValues(name)); got != 1 {
		t.Errorf("cache_entries = %v, want 1", got)
	}
}

func TestCacheHitRate_Empty(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	if rate := c.HitRate(); rate != 0 {
		t.Errorf("HitRate() = %f, want 0", rate)
	}
}

func TestCacheServe(t *testing.T) {
	c, clock := newTestCache(t, time.Millisecond)
	c.cleanupInterval = 5 * time.Millisecond
	c.Set("a", 1)
	clock.Advance(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for c.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.Len() != 0 {
		t.Error("Serve did not sweep expired entries")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if c.String() != "cache-cleanup:"+t.Name() {
		t.Errorf("String() = %q", c.String())
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New[int, int]("concurrent", time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Set(i, g)
				c.Get(i)
				if i%10 == 0 {
					c.Delete(i)
				}
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 200 {
		t.Errorf("Len() = %d", c.Len())
	}
}
