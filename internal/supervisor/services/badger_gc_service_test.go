// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type mockCollector struct {
	calls atomic.Int32
	ratio atomic.Value
	err   error
}

func (m *mockCollector) RunGC(discardRatio float64) error {
	m.calls.Add(1)
	m.ratio.Store(discardRatio)
	return m.err
}

func TestBadgerGCService(t *testing.T) {
	t.Run("implements suture.Service interface", func(t *testing.T) {
		var _ suture.Service = (*BadgerGCService)(nil)
	})

	t.Run("collects on every tick", func(t *testing.T) {
		store := &mockCollector{}
		svc := NewBadgerGCService(store, 10*time.Millisecond, 0.7)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		deadline := time.Now().Add(2 * time.Second)
		for store.calls.Load() < 3 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()

		if err := <-done; !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
		if store.calls.Load() < 3 {
			t.Errorf("RunGC called %d times, want at least 3", store.calls.Load())
		}
		if got := store.ratio.Load().(float64); got != 0.7 {
			t.Errorf("discard ratio = %v, want 0.7", got)
		}
	})

	t.Run("keeps running after a failed collection", func(t *testing.T) {
		store := &mockCollector{err: errors.New("value log locked")}
		svc := NewBadgerGCService(store, 5*time.Millisecond, 0.5)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		deadline := time.Now().Add(2 * time.Second)
		for store.calls.Load() < 2 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		select {
		case err := <-done:
			t.Fatalf("Serve returned early: %v", err)
		default:
		}
		cancel()
		<-done
	})

	t.Run("does not collect before the first tick", func(t *testing.T) {
		store := &mockCollector{}
		svc := NewBadgerGCService(store, time.Hour, 0.5)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		_ = svc.Serve(ctx)

		if n := store.calls.Load(); n != 0 {
			t.Errorf("RunGC called %d times, want 0", n)
		}
	})

	t.Run("has a stable name", func(t *testing.T) {
		if got := NewBadgerGCService(&mockCollector{}, time.Minute, 0.5).String(); got != "badger-gc" {
			t.Errorf("String() = %q", got)
		}
	})
}
