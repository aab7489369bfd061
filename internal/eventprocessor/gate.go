// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package eventprocessor

import (
	"context"

	"github.com/tomtom215/pulse/internal/kv"
	"github.com/tomtom215/pulse/internal/logging"
)

// Duplicate tiers, used as the tier label on logs and metrics.
const (
	TierKV         = "kv"
	TierDurable    = "durable"
	TierConstraint = "constraint"
)

// ExistenceChecker answers whether an eventId is already durably stored.
type ExistenceChecker interface {
	ExistsByEventID(ctx context.Context, eventID string) (bool, error)
}

// Gate is the two-tier idempotency check.
//
// The KV marker is a fast path only. A KV error falls through to the durable
// check, and a durable error or open breaker lets the event through so the
// unique constraint on event_id makes the final call.
type Gate struct {
	kv      kv.Store
	durable ExistenceChecker
	breaker *Breaker
}

// NewGate creates a gate. breaker guards the durable check and may be nil.
func NewGate(store kv.Store, durable ExistenceChecker, breaker *Breaker) *Gate {
	return &Gate{kv: store, durable: durable, breaker: breaker}
}

// Check reports whether eventID was already processed and, if so, which
// tier caught it. An empty eventID is never a duplicate.
func (g *Gate) Check(ctx context.Context, eventID string) (duplicate bool, tier string) {
	if eventID == "" {
		return false, ""
	}

	seen, err := g.kv.HasKey(ctx, kv.MarkerKey(eventID))
	switch {
	case err != nil:
		logging.Ctx(ctx).Warn().Err(err).Str("event_id", eventID).Msg("KV marker check failed, falling through to durable store")
	case seen:
		return true, TierKV
	}

	if g.durable == nil {
		return false, ""
	}

	var exists bool
	check := func(ctx context.Context) error {
		var err error
		exists, err = g.durable.ExistsByEventID(ctx, eventID)
		return err
	}
	if g.breaker != nil {
		err = g.breaker.Do(ctx, check)
	} else {
		err = check(ctx)
	}
	if err != nil {
		if !IsBreakerOpen(err) {
			logging.Ctx(ctx).Warn().Err(err).Str("event_id", eventID).Msg("Durable existence check failed, relying on unique constraint")
		}
		return false, ""
	}
	if exists {
		return true, TierDurable
	}
	return false, ""
}
