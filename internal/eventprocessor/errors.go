// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package eventprocessor

import (
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/pulse/internal/database"
)

// ErrDecode wraps a record value that could not be decoded as an event.
var ErrDecode = errors.New("failed to decode event")

// ErrMissingEventType is returned for events without a non-blank eventType.
var ErrMissingEventType = errors.New("eventType is required")

// ErrMissingPayload is returned by the write path for events without a payload.
var ErrMissingPayload = errors.New("payload is required")

// ErrDuplicateEvent is the durable store's uniqueness violation.
var ErrDuplicateEvent = database.ErrDuplicateEvent

// ErrRejectedEvent is the durable store refusing an event's contents. The
// store is healthy, so the record is quarantined and the breaker is not
// charged.
var ErrRejectedEvent = database.ErrRejectedEvent

// ErrBreakerOpen is returned by Breaker.Do when the call was rejected
// without running.
var ErrBreakerOpen = gobreaker.ErrOpenState

// ErrPanic wraps a panic recovered while handling a record.
var ErrPanic = errors.New("panic while processing record")

// IsBreakerOpen reports whether err means the breaker rejected the call,
// either because it is open or because the half-open request quota is used up.
func IsBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
