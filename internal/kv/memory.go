// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package kv

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore is an in-process Store with TTL support. It backs tests and
// single-process deployments that do not need counters to survive restarts.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
	closed  bool
	stop    chan struct{}
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces the wall clock, so expiry can be driven by tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

// WithCleanupInterval starts a background sweep of expired keys.
// Expired keys are never visible regardless; the sweep only frees memory.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(m *MemoryStore) {
		if d > 0 {
			go m.cleanupLoop(d)
		}
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// lookup returns the live entry for key (must be called with mu held).
func (m *MemoryStore) lookup(key string) (memoryEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if e.expired(m.now()) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (m *MemoryStore) begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	return nil
}

func (m *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	if err := m.begin(ctx); err != nil {
		return 0, err
	}
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	var n int64
	if ok {
		v, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		n = v
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	m.entries[key] = e
	return n, nil
}

func (m *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := m.begin(ctx); err != nil {
		return err
	}
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		return nil
	}
	if ttl <= 0 {
		delete(m.entries, key)
		return nil
	}
	e.expiresAt = m.now().Add(ttl)
	m.entries[key] = e
	return nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := m.begin(ctx); err != nil {
		return err
	}
	defer m.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *MemoryStore) HasKey(ctx context.Context, key string) (bool, error) {
	if err := m.begin(ctx); err != nil {
		return false, err
	}
	defer m.mu.Unlock()

	_, ok := m.lookup(key)
	return ok, nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (int64, bool, error) {
	if err := m.begin(ctx); err != nil {
		return 0, false, err
	}
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		return 0, false, ErrNotInteger
	}
	return v, true, nil
}

func (m *MemoryStore) MGet(ctx context.Context, keys ...string) (map[string]int64, error) {
	if err := m.begin(ctx); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	out := make(map[string]int64, len(keys))
	for _, key := range keys {
		e, ok := m.lookup(key)
		if !ok {
			continue
		}
		v, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return nil, ErrNotInteger
		}
		out[key] = v
	}
	return out, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	if err := m.begin(ctx); err != nil {
		return err
	}
	m.mu.Unlock()
	return nil
}

// Close stops the cleanup sweep. Further calls return ErrClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.stop)
	}
	return nil
}

// Len returns the number of live keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	return len(m.entries)
}

func (m *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			m.sweep()
			m.mu.Unlock()
		}
	}
}

// sweep drops expired entries (must be called with mu held).
func (m *MemoryStore) sweep() {
	now := m.now()
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
		}
	}
}
