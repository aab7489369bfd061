// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package eventprocessor

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/metrics"
	"github.com/tomtom215/pulse/internal/models"
	"github.com/tomtom215/pulse/internal/validation"
)

// EventProcessor is the part of Processor the handler depends on.
type EventProcessor interface {
	Process(ctx context.Context, ref logging.RecordRef, ev *models.DecodedEvent) (Outcome, error)
}

// RecordHandler turns one raw log record into a terminal outcome.
//
// Decode failures, validation failures, and any error or panic out of the
// processor send the raw value to quarantine. Handle always returns, so the
// caller can acknowledge the record afterwards.
type RecordHandler struct {
	processor   EventProcessor
	quarantiner *Quarantiner
	now         func() time.Time
}

// NewRecordHandler creates a handler.
func NewRecordHandler(processor EventProcessor, quarantiner *Quarantiner) *RecordHandler {
	return &RecordHandler{processor: processor, quarantiner: quarantiner, now: time.Now}
}

// Handle processes raw. key is the record key, forwarded with the raw value
// when quarantine forwarding is enabled.
func (h *RecordHandler) Handle(ctx context.Context, ref logging.RecordRef, key, raw []byte) Outcome {
	start := time.Now()

	ev, err := models.DecodeEvent(raw, h.now())
	if err != nil {
		return h.quarantine(ctx, ref, key, raw, fmt.Errorf("%w: %v", ErrDecode, err), start)
	}
	ref.EventID = ev.EventID

	if verr := validation.ValidateStruct(ev); verr != nil {
		return h.quarantine(ctx, ref, key, raw, fmt.Errorf("%w: %s", ErrMissingEventType, verr.Error()), start)
	}

	outcome, err := h.process(ctx, ref, ev)
	if err != nil {
		return h.quarantine(ctx, ref, key, raw, err, start)
	}
	return outcome
}

// process calls the processor, converting a panic into an error.
func (h *RecordHandler) process(ctx context.Context, ref logging.RecordRef, ev *models.DecodedEvent) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().
				Str("event_id", ev.EventID).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Recovered panic while processing event")
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return h.processor.Process(ctx, ref, ev)
}

func (h *RecordHandler) quarantine(ctx context.Context, ref logging.RecordRef, key, raw []byte, reason error, start time.Time) Outcome {
	h.quarantiner.Quarantine(ctx, SourceConsumer, ref, key, raw, reason.Error())
	metrics.RecordEventOutcome(outcomeQuarantined, time.Since(start))
	return Quarantined
}
