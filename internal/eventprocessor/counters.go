// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package eventprocessor

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/pulse/internal/kv"
	"github.com/tomtom215/pulse/internal/models"
)

// Counters maintains the aggregate counters and the per-minute rate window.
type Counters struct {
	kv      kv.Store
	rateTTL time.Duration
}

// NewCounters creates counters over store. rateTTL bounds the lifetime of
// each per-minute bucket.
func NewCounters(store kv.Store, rateTTL time.Duration) *Counters {
	return &Counters{kv: store, rateTTL: rateTTL}
}

// Record increments the total, the event type counter, the region counter
// when a region is present, and the bucket for the minute containing now.
// The first failure aborts the remaining increments.
func (c *Counters) Record(ctx context.Context, ev *models.DecodedEvent, now time.Time) error {
	keys := make([]string, 0, 3)
	keys = append(keys, kv.TotalKey, kv.EventTypeKey(ev.EventType))
	if ev.Region != "" {
		keys = append(keys, kv.RegionKey(ev.Region))
	}
	for _, key := range keys {
		if _, err := c.kv.Incr(ctx, key); err != nil {
			return fmt.Errorf("increment %s: %w", key, err)
		}
	}

	rateKey := kv.RateKey(kv.MinuteBucket(now))
	if _, err := c.kv.Incr(ctx, rateKey); err != nil {
		return fmt.Errorf("increment %s: %w", rateKey, err)
	}
	if err := c.kv.Expire(ctx, rateKey, c.rateTTL); err != nil {
		return fmt.Errorf("expire %s: %w", rateKey, err)
	}
	return nil
}
