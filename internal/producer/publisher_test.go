// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package producer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/metrics"
	"github.com/tomtom215/pulse/internal/models"
	"github.com/tomtom215/pulse/internal/validation"
)

// fakeClient completes every async produce immediately.
type fakeClient struct {
	mu         sync.Mutex
	produced   []*kgo.Record
	produceErr error
	syncErr    error
	flushErr   error
	flushes    int
	closed     bool
	ctxErrs    []error
}

func (c *fakeClient) Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	c.mu.Lock()
	c.produced = append(c.produced, r)
	c.ctxErrs = append(c.ctxErrs, ctx.Err())
	err := c.produceErr
	c.mu.Unlock()
	if err == nil {
		r.Partition = 1
		r.Offset = int64(len(c.produced))
	}
	promise(r, err)
}

func (c *fakeClient) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	c.mu.Lock()
	defer c.mu.Unlock()
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		c.produced = append(c.produced, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: c.syncErr})
	}
	return results
}

func (c *fakeClient) Flush(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushes++
	return c.flushErr
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeClient) records() []*kgo.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*kgo.Record(nil), c.produced...)
}

var publishTime = time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

func newTestPublisher(client *fakeClient) *Publisher {
	kafka := config.Default().Kafka
	return NewPublisher(client, &kafka,
		WithClock(func() time.Time { return publishTime }),
		WithIDGenerator(func() string { return "generated-id" }),
	)
}

func TestPublisher_TopicFor(t *testing.T) {
	p := newTestPublisher(&fakeClient{})

	tests := []struct {
		eventType string
		want      string
	}{
		{"ERROR", "system-events"},
		{"error", "system-events"},
		{"SYSTEM_HEALTH", "system-events"},
		{"Latency", "system-events"},
		{"server_start", "system-events"},
		{"PAGE_VIEW", "user-events"},
		{"PURCHASE", "user-events"},
		{"WEIRD_THING", "user-events"},
		{"", "user-events"},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			if got := p.TopicFor(tt.eventType); got != tt.want {
				t.Errorf("TopicFor(%q) = %q, want %q", tt.eventType, got, tt.want)
			}
		})
	}
}

func TestPublisher_Publish(t *testing.T) {
	client := &fakeClient{}
	p := newTestPublisher(client)

	ev := &models.Event{
		EventType: "PURCHASE",
		UserID:    "user_101",
		Payload:   map[string]interface{}{"amount": 42.5},
	}
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if ev.EventID != "generated-id" {
		t.Errorf("EventID = %q, want generated-id", ev.EventID)
	}
	if ev.Timestamp != "2024-01-02T03:04:05.006Z" {
		t.Errorf("Timestamp = %q, want 2024-01-02T03:04:05.006Z", ev.Timestamp)
	}

	recs := client.records()
	if len(recs) != 1 {
		t.Fatalf("produced %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Topic != "user-events" {
		t.Errorf("Topic = %q, want user-events", rec.Topic)
	}
	if string(rec.Key) != "user_101" {
		t.Errorf("Key = %q, want user_101", rec.Key)
	}

	var wire models.Event
	if err := json.Unmarshal(rec.Value, &wire); err != nil {
		t.Fatalf("record value is not JSON: %v", err)
	}
	if wire.EventID != "generated-id" || wire.EventType != "PURCHASE" {
		t.Errorf("wire event = %+v", wire)
	}
	if wire.Payload["amount"] != 42.5 {
		t.Errorf("wire payload = %v", wire.Payload)
	}
}

func TestPublisher_PublishKeepsClientValues(t *testing.T) {
	client := &fakeClient{}
	p := newTestPublisher(client)

	ev := &models.Event{
		EventID:   "client-id",
		EventType: "ERROR",
		Payload:   map[string]interface{}{},
		Timestamp: "2023-05-06T07:08:09.000Z",
	}
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if ev.EventID != "client-id" || ev.Timestamp != "2023-05-06T07:08:09.000Z" {
		t.Errorf("client values overwritten: %+v", ev)
	}

	rec := client.records()[0]
	if rec.Topic != "system-events" {
		t.Errorf("Topic = %q, want system-events", rec.Topic)
	}
	// no user id: keyed by event id
	if string(rec.Key) != "client-id" {
		t.Errorf("Key = %q, want client-id", rec.Key)
	}
}

func TestPublisher_PublishRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		ev    models.Event
		field string
	}{
		{"missing type", models.Event{Payload: map[string]interface{}{}}, "eventType"},
		{"blank type", models.Event{EventType: "   ", Payload: map[string]interface{}{}}, "eventType"},
		{"missing payload", models.Event{EventType: "CLICK"}, "payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			p := newTestPublisher(client)

			ev := tt.ev
			err := p.Publish(context.Background(), &ev)
			var verr *validation.RequestValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Publish() error = %v, want RequestValidationError", err)
			}
			if got := verr.Errors()[0].Field(); got != tt.field {
				t.Errorf("failed field = %q, want %q", got, tt.field)
			}
			if n := len(client.records()); n != 0 {
				t.Errorf("produced %d records for an invalid event", n)
			}
		})
	}
}

func TestPublisher_PublishOutlivesRequestContext(t *testing.T) {
	client := &fakeClient{}
	p := newTestPublisher(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ev := &models.Event{EventType: "CLICK", Payload: map[string]interface{}{}}
	if err := p.Publish(ctx, ev); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := client.ctxErrs[0]; err != nil {
		t.Errorf("produce context error = %v, want nil", err)
	}
}

func TestPublisher_PublishFailureRecorded(t *testing.T) {
	client := &fakeClient{produceErr: errors.New("broker down")}
	p := newTestPublisher(client)

	failures := metrics.EventsPublished.WithLabelValues("user-events", metrics.ResultFailure)
	before := testutil.ToFloat64(failures)

	ev := &models.Event{EventType: "LOGIN", Payload: map[string]interface{}{}}
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish() error = %v, want nil (failures are async)", err)
	}
	if got := testutil.ToFloat64(failures) - before; got != 1 {
		t.Errorf("publish failures delta = %v, want 1", got)
	}
}

func TestPublisher_Forward(t *testing.T) {
	client := &fakeClient{}
	p := newTestPublisher(client)

	err := p.Forward(context.Background(), []byte("k"), []byte("{bad json"), "decode failed")
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	rec := client.records()[0]
	if rec.Topic != "dead-letter-events" {
		t.Errorf("Topic = %q, want dead-letter-events", rec.Topic)
	}
	if string(rec.Value) != "{bad json" || string(rec.Key) != "k" {
		t.Errorf("record = key %q value %q", rec.Key, rec.Value)
	}
	if len(rec.Headers) != 1 || rec.Headers[0].Key != HeaderErrorMessage || string(rec.Headers[0].Value) != "decode failed" {
		t.Errorf("headers = %+v", rec.Headers)
	}
}

func TestPublisher_ForwardError(t *testing.T) {
	client := &fakeClient{syncErr: errors.New("not leader")}
	p := newTestPublisher(client)

	err := p.Forward(context.Background(), nil, []byte("x"), "reason")
	if err == nil || !errors.Is(err, client.syncErr) {
		t.Errorf("Forward() error = %v, want wrapped %v", err, client.syncErr)
	}
}

func TestPublisher_Close(t *testing.T) {
	client := &fakeClient{flushErr: context.DeadlineExceeded}
	p := newTestPublisher(client)

	err := p.Close(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Close() error = %v, want flush error", err)
	}
	if client.flushes != 1 || !client.closed {
		t.Errorf("flushes = %d closed = %v, want 1 true", client.flushes, client.closed)
	}
}
