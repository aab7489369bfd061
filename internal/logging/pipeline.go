// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RecordRef identifies a log record as it moves through the pipeline.
type RecordRef struct {
	Topic     string
	Partition int32
	Offset    int64
	EventID   string
}

// PipelineLogger logs per-record pipeline transitions with the record's
// log coordinates attached.
type PipelineLogger struct {
	logger zerolog.Logger
}

// NewPipelineLogger creates a PipelineLogger on the global logger.
func NewPipelineLogger(component string) *PipelineLogger {
	return &PipelineLogger{logger: WithComponent(component)}
}

// NewPipelineLoggerWithLogger creates a PipelineLogger on a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPipelineLoggerWithLogger(logger zerolog.Logger, component string) *PipelineLogger {
	return &PipelineLogger{logger: logger.With().Str("component", component).Logger()}
}

// Logger returns the underlying zerolog logger.
func (p *PipelineLogger) Logger() *zerolog.Logger {
	return &p.logger
}

func (p *PipelineLogger) forRecord(ctx context.Context, ref RecordRef) zerolog.Logger {
	logCtx := p.logger.With()
	if ref.Topic != "" {
		logCtx = logCtx.Str("topic", ref.Topic).
			Int32("partition", ref.Partition).
			Int64("offset", ref.Offset)
	}
	if ref.EventID != "" {
		logCtx = logCtx.Str("event_id", ref.EventID)
	}
	if ctx != nil {
		if id := CorrelationIDFromContext(ctx); id != "" {
			logCtx = logCtx.Str("correlation_id", id)
		}
	}
	return logCtx.Logger()
}

// LogEventDone logs an event that reached the end of the pipeline.
func (p *PipelineLogger) LogEventDone(ctx context.Context, ref RecordRef, eventType string, took time.Duration) {
	l := p.forRecord(ctx, ref)
	l.Debug().Str("event_type", eventType).Dur("took", took).Msg("event processed")
}

// LogDuplicate logs an event dropped as already processed. tier names the
// check that caught it: kv, durable or constraint.
func (p *PipelineLogger) LogDuplicate(ctx context.Context, ref RecordRef, tier string) {
	l := p.forRecord(ctx, ref)
	l.Info().Str("tier", tier).Msg("duplicate event dropped")
}

// LogStepSkipped logs a fan-out step skipped because its breaker is open.
func (p *PipelineLogger) LogStepSkipped(ctx context.Context, ref RecordRef, step string) {
	l := p.forRecord(ctx, ref)
	l.Warn().Str("step", step).Msg("circuit open, step skipped")
}

// LogStepFailed logs a best-effort step that ran and failed.
func (p *PipelineLogger) LogStepFailed(ctx context.Context, ref RecordRef, step string, err error) {
	l := p.forRecord(ctx, ref)
	l.Error().Err(err).Str("step", step).Msg("step failed, continuing")
}

// LogQuarantined logs a record routed to the dead-letter store.
func (p *PipelineLogger) LogQuarantined(ctx context.Context, ref RecordRef, reason error) {
	l := p.forRecord(ctx, ref)
	l.Warn().AnErr("reason", reason).Msg("record quarantined")
}

// LogQuarantineFailed logs a dead-letter write that could not be saved.
func (p *PipelineLogger) LogQuarantineFailed(ctx context.Context, ref RecordRef, err error) {
	l := p.forRecord(ctx, ref)
	l.Error().Err(err).Msg("failed to save dead letter, record acknowledged anyway")
}

// LogBatchCommitted logs the commit at the end of a poll batch.
func (p *PipelineLogger) LogBatchCommitted(records int, took time.Duration) {
	p.logger.Debug().Int("records", records).Dur("took", took).Msg("batch committed")
}
