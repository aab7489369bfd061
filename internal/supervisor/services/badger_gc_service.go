// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package services

import (
	"context"
	"time"

	"github.com/tomtom215/pulse/internal/logging"
)

// ValueLogCollector matches the value log GC of *kv.BadgerStore.
type ValueLogCollector interface {
	RunGC(discardRatio float64) error
}

// BadgerGCService periodically rewrites the Badger value log. Idempotency
// markers and rate buckets expire continuously, so without it the value
// log only grows.
//
// A failed GC run is logged and retried at the next tick; it does not
// end the service, since a restart would not help.
//
// Example usage:
//
//	store, _ := kv.OpenBadgerStore(cfg.KV.BadgerPath)
//	svc := services.NewBadgerGCService(store, 5*time.Minute, 0.5)
//	tree.AddDataService(svc)
type BadgerGCService struct {
	store        ValueLogCollector
	interval     time.Duration
	discardRatio float64
	runs         int
}

// NewBadgerGCService creates the GC service. interval must be positive.
func NewBadgerGCService(store ValueLogCollector, interval time.Duration, discardRatio float64) *BadgerGCService {
	return &BadgerGCService{
		store:        store,
		interval:     interval,
		discardRatio: discardRatio,
	}
}

// Serve implements suture.Service.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.collect()
		}
	}
}

func (s *BadgerGCService) collect() {
	start := time.Now()
	s.runs++
	if err := s.store.RunGC(s.discardRatio); err != nil {
		logging.Warn().Err(err).Float64("discard_ratio", s.discardRatio).Msg("Badger value log GC failed")
		return
	}
	logging.Debug().Dur("duration", time.Since(start)).Int("run", s.runs).Msg("Badger value log GC finished")
}

// String implements fmt.Stringer for logging.
func (s *BadgerGCService) String() string {
	return "badger-gc"
}
