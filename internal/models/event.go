// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package models

import (
	"bytes"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Event types with dedicated dashboard counters.
const (
	EventTypePageView  = "PAGE_VIEW"
	EventTypePurchase  = "PURCHASE"
	EventTypeLogin     = "LOGIN"
	EventTypeLogout    = "LOGOUT"
	EventTypeAddToCart = "ADD_TO_CART"
	EventTypeSearch    = "SEARCH"
	EventTypeError     = "ERROR"
	EventTypeClick     = "CLICK"

	// System event types routed to the system topic.
	EventTypeSystemHealth = "SYSTEM_HEALTH"
	EventTypeLatency      = "LATENCY"
	EventTypeServerStart  = "SERVER_START"
)

// DashboardEventTypes is the fixed enumeration read by the dashboard.
var DashboardEventTypes = []string{
	EventTypePageView,
	EventTypePurchase,
	EventTypeLogin,
	EventTypeLogout,
	EventTypeAddToCart,
	EventTypeSearch,
	EventTypeError,
	EventTypeClick,
}

// DashboardRegions is the fixed region enumeration read by the dashboard.
var DashboardRegions = []string{"IN", "US", "EU", "APAC"}

// ErrNotObject is returned when a log value decodes to JSON null.
var ErrNotObject = errors.New("event value is not a JSON object")

// TimestampLayout is the wire format for event timestamps (ISO-8601, UTC, millis).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Event is the wire representation of an analytics event as published
// to the log and accepted by the write API.
type Event struct {
	EventID   string                 `json:"eventId,omitempty"`
	EventType string                 `json:"eventType" validate:"required,notblank"`
	UserID    string                 `json:"userId,omitempty"`
	SessionID string                 `json:"sessionId,omitempty"`
	Payload   map[string]interface{} `json:"payload" validate:"required"`
	Source    string                 `json:"source,omitempty"`
	Region    string                 `json:"region,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// PartitionKey returns the record key used upstream: userId, else eventId.
func (e *Event) PartitionKey() string {
	if e.UserID != "" {
		return e.UserID
	}
	return e.EventID
}

// DecodedEvent is an event decoded from the log. Decoding is lenient:
// only eventType is required, and the timestamp has already been
// resolved to an instant.
type DecodedEvent struct {
	EventID   string
	EventType string `json:"eventType" validate:"required,notblank"`
	UserID    string
	SessionID string
	Payload   map[string]interface{}
	Source    string
	Region    string
	Timestamp time.Time
}

// DecodeEvent parses a raw log value into a DecodedEvent.
// The value must be a JSON object. Non-string values for string fields
// are treated as absent and a non-object payload is treated as null.
// A missing or unparseable timestamp resolves to now.
func DecodeEvent(raw []byte, now time.Time) (*DecodedEvent, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotObject
	}

	ev := &DecodedEvent{
		EventID:   stringField(m, "eventId"),
		EventType: stringField(m, "eventType"),
		UserID:    stringField(m, "userId"),
		SessionID: stringField(m, "sessionId"),
		Source:    stringField(m, "source"),
		Region:    stringField(m, "region"),
		Timestamp: ParseTimestamp(stringField(m, "timestamp"), now),
	}
	if p, err := DecodePayload(m["payload"]); err == nil {
		ev.Payload = p
	}
	return ev, nil
}

// DecodePayload parses a JSON object payload. Numbers are kept as
// json.Number so integers above 2^53 survive the round trip to the sinks.
// Empty input and null yield a nil map.
func DecodePayload(raw []byte) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var p map[string]interface{}
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseTimestamp parses an ISO-8601 instant, falling back to now.
func ParseTimestamp(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.UTC()
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return now.UTC()
	}
	return t.UTC()
}

// FormatTimestamp renders t in the wire format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func stringField(m map[string]json.RawMessage, key string) string {
	raw, ok := m[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
