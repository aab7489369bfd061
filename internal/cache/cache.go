// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/pulse/internal/metrics"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces the clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Cache is a thread-safe in-memory cache with a single TTL for every entry.
// Expired entries are removed by the Get that finds them. Lookups are
// counted in pulse_read_cache_lookups_total under the cache name.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	name    string
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache named name whose entries live for ttl.
//
// Example:
//
//	c := cache.New[[]models.RegionCount]("regions", 10*time.Second)
//	c.Set("regions", rows)
//	if rows, ok := c.Get("regions"); ok {
//	    return rows, nil
//	}
func New[V any](name string, ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		name:    name,
		ttl:     ttl,
		now:     o.now,
	}
}

// Get returns the value of key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		metrics.RecordCacheLookup(c.name, false)
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// re-check: a concurrent Set may have refreshed the entry
		if cur, ok := c.entries[key]; ok && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		metrics.RecordCacheLookup(c.name, false)
		return zero, false
	}
	metrics.RecordCacheLookup(c.name, true)
	return e.value, true
}

// Set stores value under key for the cache TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// GetOrLoad returns the cached value of key, calling load on a miss and
// caching its result. Errors are returned and not cached. Concurrent
// misses on one key may each call load.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}
