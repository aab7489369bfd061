// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package eventprocessor

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/metrics"
	"github.com/tomtom215/pulse/internal/models"
)

// Quarantine sources, used as the source label on metrics.
const (
	SourceConsumer = "consumer"
	SourceMonitor  = "monitor"
)

// DLQMonitorMessage is the error message stored for records read back from
// the dead-letter topic.
const DLQMonitorMessage = "Received from Kafka DLQ topic"

// DefaultMaxErrorLength is the error message length limit in characters.
const DefaultMaxErrorLength = 2000

// DeadLetterStore persists quarantined records.
type DeadLetterStore interface {
	InsertDeadLetter(ctx context.Context, dl *models.DeadLetter) (int64, error)
}

// Forwarder republishes a quarantined raw record, typically to the
// dead-letter topic.
type Forwarder interface {
	Forward(ctx context.Context, key, raw []byte, reason string) error
}

// Quarantiner saves poison records with their error context.
//
// Saving is best effort: failures are logged and counted but never returned,
// so the caller always acknowledges the record.
type Quarantiner struct {
	store     DeadLetterStore
	forwarder Forwarder
	maxErrLen int
	now       func() time.Time
	log       *logging.PipelineLogger
}

// QuarantineOption configures a Quarantiner.
type QuarantineOption func(*Quarantiner)

// WithForwarder also republishes every quarantined record through f.
func WithForwarder(f Forwarder) QuarantineOption {
	return func(q *Quarantiner) { q.forwarder = f }
}

// WithMaxErrorLength overrides DefaultMaxErrorLength.
func WithMaxErrorLength(n int) QuarantineOption {
	return func(q *Quarantiner) {
		if n > 0 {
			q.maxErrLen = n
		}
	}
}

// WithQuarantineClock sets the time source for createdAt.
func WithQuarantineClock(now func() time.Time) QuarantineOption {
	return func(q *Quarantiner) { q.now = now }
}

// NewQuarantiner creates a quarantiner writing to store.
func NewQuarantiner(store DeadLetterStore, opts ...QuarantineOption) *Quarantiner {
	q := &Quarantiner{
		store:     store,
		maxErrLen: DefaultMaxErrorLength,
		now:       time.Now,
		log:       logging.NewPipelineLogger("quarantine"),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Quarantine saves raw with reason's message. source is SourceConsumer or
// SourceMonitor. It never fails.
func (q *Quarantiner) Quarantine(ctx context.Context, source string, ref logging.RecordRef, key, raw []byte, reason string) {
	eventID := extractEventID(raw)
	if ref.EventID == "" {
		ref.EventID = eventID
	}

	dl := &models.DeadLetter{
		EventID:      sanitizeText(eventID),
		RawPayload:   sanitizeText(string(raw)),
		ErrorMessage: truncateRunes(sanitizeText(reason), q.maxErrLen),
		RetryCount:   0,
		CreatedAt:    q.now().UTC(),
	}

	_, err := q.store.InsertDeadLetter(ctx, dl)
	metrics.RecordDLQSave(source, err)
	if err != nil {
		q.log.LogQuarantineFailed(ctx, ref, err)
	} else {
		q.log.LogQuarantined(ctx, ref, errorString(dl.ErrorMessage))
	}

	if q.forwarder != nil && source != SourceMonitor {
		ferr := q.forwarder.Forward(ctx, key, raw, dl.ErrorMessage)
		metrics.RecordDLQForward(ferr)
		if ferr != nil {
			logging.Ctx(ctx).Warn().Err(ferr).Str("event_id", eventID).Msg("Failed to forward record to DLQ topic")
		}
	}
}

// extractEventID returns the eventId of raw when raw is a JSON object with
// a string eventId, else "".
func extractEventID(raw []byte) string {
	var head struct {
		EventID interface{} `json:"eventId"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	if s, ok := head.EventID.(string); ok {
		return s
	}
	return ""
}

// sanitizeText makes s storable as SQL text: invalid UTF-8 sequences are
// replaced and NUL bytes removed.
func sanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	return strings.ReplaceAll(s, "\x00", "")
}

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

type errorString string

func (e errorString) Error() string { return string(e) }
