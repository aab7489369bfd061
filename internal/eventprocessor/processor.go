// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/kv"
	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/metrics"
	"github.com/tomtom215/pulse/internal/models"
)

// Pipeline step names, used as the step label on logs and metrics.
const (
	StepGate    = "gate"
	StepPersist = "persist"
	StepIndex   = "index"
	StepCount   = "count"
	StepMark    = "mark"
)

// Event outcome labels.
const (
	outcomeDone        = "done"
	outcomeDropped     = "dropped"
	outcomeQuarantined = "quarantined"
)

// DurableStore is the durable sink used by the processor.
type DurableStore interface {
	ExistenceChecker
	// InsertEvent stores rec in a single transaction and returns its id.
	// It returns ErrDuplicateEvent when rec.EventID is already stored.
	InsertEvent(ctx context.Context, rec *models.EventRecord) (int64, error)
}

// SearchIndex is the search sink used by the processor.
type SearchIndex interface {
	Upsert(ctx context.Context, doc *models.EventDocument) error
}

// Outcome is the terminal state of an event that did not need quarantine.
type Outcome int

const (
	// Done means the event ran through every step that was not skipped.
	Done Outcome = iota
	// Dropped means the event was recognized as already processed.
	Dropped
	// Quarantined means the record was saved to the dead-letter store.
	Quarantined
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return outcomeDone
	case Dropped:
		return outcomeDropped
	case Quarantined:
		return outcomeQuarantined
	default:
		return "unknown"
	}
}

// ProcessorConfig holds the processor settings.
type ProcessorConfig struct {
	MarkerTTL     time.Duration
	RateBucketTTL time.Duration
	Breaker       config.BreakerConfig
}

// ProcessorConfigFrom builds a ProcessorConfig from the application config.
func ProcessorConfigFrom(cfg *config.Config) ProcessorConfig {
	return ProcessorConfig{
		MarkerTTL:     cfg.KV.MarkerTTL,
		RateBucketTTL: cfg.KV.RateBucketTTL,
		Breaker:       cfg.Breaker,
	}
}

// ProcessorStats holds processor counters.
type ProcessorStats struct {
	Done    int64
	Dropped int64
	Failed  int64
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithClock sets the time source used for processedAt and rate buckets.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

// WithPipelineLogger sets the logger for per-event transitions.
func WithPipelineLogger(l *logging.PipelineLogger) ProcessorOption {
	return func(p *Processor) { p.log = l }
}

// Processor runs one decoded event through the fan-out pipeline:
// gate, persist, index, count, mark. Persist and index are best effort
// behind their breakers; a row the durable store refuses and count and mark
// failures are returned so the caller can quarantine the record.
type Processor struct {
	kv       kv.Store
	durable  DurableStore
	search   SearchIndex
	gate     *Gate
	counters *Counters

	durableBreaker *Breaker
	searchBreaker  *Breaker

	markerTTL time.Duration
	now       func() time.Time
	log       *logging.PipelineLogger

	done    atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewProcessor creates a processor. search may be nil when the search index
// is disabled.
func NewProcessor(store kv.Store, durable DurableStore, search SearchIndex, cfg ProcessorConfig, opts ...ProcessorOption) *Processor {
	p := &Processor{
		kv:             store,
		durable:        durable,
		search:         search,
		counters:       NewCounters(store, cfg.RateBucketTTL),
		durableBreaker: NewBreaker(BreakerDurable, cfg.Breaker),
		searchBreaker:  NewBreaker(BreakerSearch, cfg.Breaker),
		markerTTL:      cfg.MarkerTTL,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logging.NewPipelineLogger("processor")
	}
	p.gate = NewGate(store, durable, p.durableBreaker)
	return p
}

// Breakers returns the durable and search breakers.
func (p *Processor) Breakers() []*Breaker {
	if p.search == nil {
		return []*Breaker{p.durableBreaker}
	}
	return []*Breaker{p.durableBreaker, p.searchBreaker}
}

// Stats returns a snapshot of the processor counters.
func (p *Processor) Stats() ProcessorStats {
	return ProcessorStats{
		Done:    p.done.Load(),
		Dropped: p.dropped.Load(),
		Failed:  p.failed.Load(),
	}
}

// Process runs ev through the pipeline. It returns an error only when the
// record has to be quarantined.
func (p *Processor) Process(ctx context.Context, ref logging.RecordRef, ev *models.DecodedEvent) (Outcome, error) {
	start := p.now()
	ref.EventID = ev.EventID

	gateStart := time.Now()
	dup, tier := p.gate.Check(ctx, ev.EventID)
	metrics.RecordStep(StepGate, time.Since(gateStart), nil)
	if dup {
		return p.drop(ctx, ref, tier, start), nil
	}

	processedAt := p.now()

	rec := models.NewEventRecord(ev, processedAt)
	err := p.runStep(ctx, ref, StepPersist, p.durableBreaker, func(ctx context.Context) error {
		_, err := p.durable.InsertEvent(ctx, rec)
		return err
	})
	switch {
	case errors.Is(err, ErrDuplicateEvent):
		return p.drop(ctx, ref, TierConstraint, start), nil
	case errors.Is(err, ErrRejectedEvent):
		p.failed.Add(1)
		return Done, fmt.Errorf("%s: %w", StepPersist, err)
	}

	if p.search != nil {
		doc := models.NewEventDocument(ev)
		_ = p.runStep(ctx, ref, StepIndex, p.searchBreaker, func(ctx context.Context) error {
			return p.search.Upsert(ctx, doc)
		})
	}

	stepStart := time.Now()
	err = p.counters.Record(ctx, ev, processedAt)
	metrics.RecordStep(StepCount, time.Since(stepStart), err)
	if err != nil {
		p.failed.Add(1)
		return Done, fmt.Errorf("%s: %w", StepCount, err)
	}

	if ev.EventID != "" {
		stepStart = time.Now()
		err = p.kv.Set(ctx, kv.MarkerKey(ev.EventID), "1", p.markerTTL)
		metrics.RecordStep(StepMark, time.Since(stepStart), err)
		if err != nil {
			p.failed.Add(1)
			return Done, fmt.Errorf("%s: %w", StepMark, err)
		}
	}

	took := p.now().Sub(start)
	p.done.Add(1)
	metrics.RecordEventOutcome(outcomeDone, took)
	p.log.LogEventDone(ctx, ref, ev.EventType, took)
	return Done, nil
}

// runStep runs a best-effort fan-out step behind its breaker. A rejected
// call is logged as skipped, a failed call as failed; neither stops the
// pipeline. The returned error lets the caller see a uniqueness violation.
func (p *Processor) runStep(ctx context.Context, ref logging.RecordRef, step string, b *Breaker, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := b.Do(ctx, fn)
	switch {
	case err == nil, errors.Is(err, ErrDuplicateEvent):
		metrics.RecordStep(step, time.Since(start), nil)
	case errors.Is(err, ErrRejectedEvent):
		metrics.RecordStep(step, time.Since(start), err)
	case IsBreakerOpen(err):
		metrics.RecordStepSkipped(step)
		p.log.LogStepSkipped(ctx, ref, step)
	default:
		metrics.RecordStep(step, time.Since(start), err)
		p.log.LogStepFailed(ctx, ref, step, err)
	}
	return err
}

func (p *Processor) drop(ctx context.Context, ref logging.RecordRef, tier string, start time.Time) Outcome {
	p.dropped.Add(1)
	metrics.RecordDuplicate(tier)
	metrics.RecordEventOutcome(outcomeDropped, p.now().Sub(start))
	p.log.LogDuplicate(ctx, ref, tier)
	return Dropped
}
