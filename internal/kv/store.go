// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/metrics"
)

// ErrNotInteger is returned when Incr or an integer read hits a non-numeric value.
var ErrNotInteger = errors.New("kv: value is not an integer")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv: store closed")

// Store is the key-value store holding counters and idempotency markers.
//
// Semantics follow Redis: Incr creates a missing key at 1 without expiry
// and keeps the expiry of an existing key; Expire on a missing key is a
// no-op; a zero ttl on Set means no expiry.
type Store interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	HasKey(ctx context.Context, key string) (bool, error)
	// Get returns the integer value of key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value int64, ok bool, err error)
	// MGet returns the integer values of the present keys. Absent keys are omitted.
	MGet(ctx context.Context, keys ...string) (map[string]int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the store selected by cfg.Backend, wrapped with per-call
// deadlines and metrics.
func Open(cfg *config.KVConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "redis":
		s, err = NewRedisStore(cfg)
	case "badger":
		s, err = OpenBadgerStore(cfg.BadgerPath)
	case "memory":
		s = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown kv backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s, cfg.Backend, cfg.OperationTimeout), nil
}

// instrumented applies a per-call deadline and records metrics.
type instrumented struct {
	next    Store
	backend string
	timeout time.Duration
}

// Instrument wraps s so that every call runs under timeout (when positive)
// and is recorded in pulse_kv_operations_total.
func Instrument(s Store, backend string, timeout time.Duration) Store {
	return &instrumented{next: s, backend: backend, timeout: timeout}
}

func (i *instrumented) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	if i.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, i.timeout)
}

func (i *instrumented) record(op string, start time.Time, err error) {
	metrics.RecordKVOperation(i.backend, op, time.Since(start), err)
}

func (i *instrumented) Incr(ctx context.Context, key string) (n int64, err error) {
	ctx, cancel := i.ctx(ctx)
	defer cancel()
	defer func(start time.Time) { i.record("incr", start, err) }(time.Now())
	return i.next.Incr(ctx, key)
}

func (i *instrumented) Expire(ctx context.Context, key string, ttl time.Duration) (err error) {
	ctx, cancel := i.ctx(ctx)
	defer cancel()
	defer func(start time.Time) { i.record("expire", start, err) }(time.Now())
	return i.next.Expire(ctx, key, ttl)
}

func (i *instrumented) Set(ctx context.Context, key, value string, ttl time.Duration) (err error) {
	ctx, cancel := i.ctx(ctx)
	defer cancel()
	defer func(start time.Time) { i.record("set", start, err) }(time.Now())
	return i.next.Set(ctx, key, value, ttl)
}

func (i *instrumented) HasKey(ctx context.Context, key string) (ok bool, err error) {
	ctx, cancel := i.ctx(ctx)
	defer cancel()
	defer func(start time.Time) { i.record("exists", start, err) }(time.Now())
	return i.next.HasKey(ctx, key)
}

func (i *instrumented) Get(ctx context.Context, key string) (v int64, ok bool, err error) {
	ctx, cancel := i.ctx(ctx)
	defer cancel()
	defer func(start time.Time) { i.record("get", start, err) }(time.Now())
	return i.next.Get(ctx, key)
}

func (i *instrumented) MGet(ctx context.Context, keys ...string) (m map[string]int64, err error) {
	ctx, cancel := i.ctx(ctx)
	defer cancel()
	defer func(start time.Time) { i.record("mget", start, err) }(time.Now())
	return i.next.MGet(ctx, keys...)
}

func (i *instrumented) Ping(ctx context.Context) error {
	ctx, cancel := i.ctx(ctx)
	defer cancel()
	return i.next.Ping(ctx)
}

func (i *instrumented) Close() error {
	return i.next.Close()
}

// Unwrap returns the store behind the instrumentation.
func (i *instrumented) Unwrap() Store {
	return i.next
}

// AsBadger returns the Badger store behind s, looking through wrappers
// that implement Unwrap.
func AsBadger(s Store) (*BadgerStore, bool) {
	for s != nil {
		if b, ok := s.(*BadgerStore); ok {
			return b, true
		}
		u, ok := s.(interface{ Unwrap() Store })
		if !ok {
			return nil, false
		}
		s = u.Unwrap()
	}
	return nil, false
}
