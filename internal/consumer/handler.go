// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package consumer

import (
	"context"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tomtom215/pulse/internal/eventprocessor"
	"github.com/tomtom215/pulse/internal/logging"
)

// Handler drives one record to a terminal state. It must not return until
// the record may be acknowledged.
type Handler interface {
	HandleRecord(ctx context.Context, rec *kgo.Record)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, rec *kgo.Record)

// HandleRecord calls f.
func (f HandlerFunc) HandleRecord(ctx context.Context, rec *kgo.Record) { f(ctx, rec) }

// RefOf returns the log coordinates of rec.
func RefOf(rec *kgo.Record) logging.RecordRef {
	return logging.RecordRef{Topic: rec.Topic, Partition: rec.Partition, Offset: rec.Offset}
}

// PipelineHandler runs records through the event pipeline.
func PipelineHandler(h *eventprocessor.RecordHandler) Handler {
	return HandlerFunc(func(ctx context.Context, rec *kgo.Record) {
		h.Handle(ctx, RefOf(rec), rec.Key, rec.Value)
	})
}

// MonitorHandler quarantines every record read from the dead-letter topic.
func MonitorHandler(q *eventprocessor.Quarantiner) Handler {
	return HandlerFunc(func(ctx context.Context, rec *kgo.Record) {
		q.Quarantine(ctx, eventprocessor.SourceMonitor, RefOf(rec), rec.Key, rec.Value, eventprocessor.DLQMonitorMessage)
	})
}
