// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package producer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/metrics"
	"github.com/tomtom215/pulse/internal/models"
	"github.com/tomtom215/pulse/internal/validation"
)

// HeaderErrorMessage carries the quarantine reason on forwarded records.
const HeaderErrorMessage = "x-error-message"

// systemEventTypes are routed to the system topic. Matching is
// case-insensitive.
var systemEventTypes = map[string]bool{
	models.EventTypeError:        true,
	models.EventTypeSystemHealth: true,
	models.EventTypeLatency:      true,
	models.EventTypeServerStart:  true,
}

// Client is the subset of *kgo.Client the publisher uses.
type Client interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Flush(ctx context.Context) error
	Close()
}

// NewClient creates a producer client. Every record waits for all
// in-sync replicas and is abandoned after the configured produce timeout.
func NewClient(kafka *config.KafkaConfig, opts ...kgo.Opt) (*kgo.Client, error) {
	kopts := []kgo.Opt{
		kgo.SeedBrokers(kafka.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.WithLogger(logging.NewKgoLogger("kafka-producer")),
	}
	if kafka.ClientID != "" {
		kopts = append(kopts, kgo.ClientID(kafka.ClientID))
	}
	if kafka.ProduceTimeout > 0 {
		kopts = append(kopts, kgo.RecordDeliveryTimeout(kafka.ProduceTimeout))
	}
	kopts = append(kopts, opts...)

	cl, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, fmt.Errorf("new kafka producer: %w", err)
	}
	return cl, nil
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithClock replaces the clock used for default timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// WithIDGenerator replaces the default event id generator.
func WithIDGenerator(newID func() string) Option {
	return func(p *Publisher) { p.newID = newID }
}

// Publisher puts events on the log. Publishing is asynchronous: Publish
// returns once the record is buffered and the outcome is reported to the
// produce callback, which logs failures and records metrics.
type Publisher struct {
	client      Client
	userTopic   string
	systemTopic string
	dlqTopic    string
	now         func() time.Time
	newID       func() string
	log         zerolog.Logger
}

// NewPublisher creates a publisher over client using the topic names in kafka.
func NewPublisher(client Client, kafka *config.KafkaConfig, opts ...Option) *Publisher {
	p := &Publisher{
		client:      client,
		userTopic:   kafka.UserTopic,
		systemTopic: kafka.SystemTopic,
		dlqTopic:    kafka.DLQTopic,
		now:         time.Now,
		newID:       uuid.NewString,
		log:         logging.WithComponent("publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TopicFor returns the topic an event type is published to. Unknown and
// empty types go to the user topic.
func (p *Publisher) TopicFor(eventType string) string {
	if systemEventTypes[strings.ToUpper(eventType)] {
		return p.systemTopic
	}
	return p.userTopic
}

// Prepare fills in a missing event id and timestamp and validates ev.
// The returned error is a *validation.RequestValidationError.
func (p *Publisher) Prepare(ev *models.Event) error {
	if ev.EventID == "" {
		ev.EventID = p.newID()
	}
	if ev.Timestamp == "" {
		ev.Timestamp = models.FormatTimestamp(p.now())
	}
	if verr := validation.ValidateStruct(ev); verr != nil {
		return verr
	}
	return nil
}

// Publish prepares ev and produces it asynchronously. The record key is
// the user id, else the event id, so one user's events stay ordered.
//
// The produce outlives ctx: callers are usually HTTP handlers whose
// request context ends as soon as the 202 is written.
func (p *Publisher) Publish(ctx context.Context, ev *models.Event) error {
	if err := p.Prepare(ev); err != nil {
		return err
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.EventID, err)
	}

	rec := &kgo.Record{
		Topic: p.TopicFor(ev.EventType),
		Key:   []byte(ev.PartitionKey()),
		Value: value,
	}
	p.log.Debug().
		Str("event_id", ev.EventID).
		Str("event_type", ev.EventType).
		Str("topic", rec.Topic).
		Str("key", string(rec.Key)).
		Msg("Publishing event")

	eventID := ev.EventID
	p.client.Produce(context.WithoutCancel(ctx), rec, func(r *kgo.Record, err error) {
		metrics.RecordPublish(r.Topic, err)
		if err != nil {
			p.log.Error().Err(err).
				Str("event_id", eventID).
				Str("topic", r.Topic).
				Msg("Failed to publish event")
			return
		}
		p.log.Debug().
			Str("event_id", eventID).
			Int32("partition", r.Partition).
			Int64("offset", r.Offset).
			Msg("Event published")
	})
	return nil
}

// Forward produces a quarantined raw record to the dead-letter topic and
// waits for the broker acknowledgment.
func (p *Publisher) Forward(ctx context.Context, key, raw []byte, reason string) error {
	rec := &kgo.Record{
		Topic: p.dlqTopic,
		Key:   key,
		Value: raw,
		Headers: []kgo.RecordHeader{
			{Key: HeaderErrorMessage, Value: []byte(reason)},
		},
	}
	err := p.client.ProduceSync(ctx, rec).FirstErr()
	metrics.RecordPublish(p.dlqTopic, err)
	if err != nil {
		return fmt.Errorf("forward to %s: %w", p.dlqTopic, err)
	}
	return nil
}

// Flush waits until every buffered record has been acknowledged or ctx ends.
func (p *Publisher) Flush(ctx context.Context) error {
	return p.client.Flush(ctx)
}

// Close flushes buffered records and closes the client.
func (p *Publisher) Close(ctx context.Context) error {
	err := p.client.Flush(ctx)
	p.client.Close()
	if err != nil {
		return fmt.Errorf("flush producer: %w", err)
	}
	return nil
}
