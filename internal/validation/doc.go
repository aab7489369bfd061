// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the write API and the consumer.
// It reports JSON field names and adds the "notblank" tag, so
//
//	type Event struct {
//	    EventType string                 `json:"eventType" validate:"required,notblank"`
//	    Payload   map[string]interface{} `json:"payload" validate:"required"`
//	}
//
// rejects "   " as an event type with "eventType must not be blank".
package validation
