// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package consumer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/eventprocessor"
	"github.com/tomtom215/pulse/internal/kv"
	"github.com/tomtom215/pulse/internal/models"
)

type memDurable struct {
	mu   sync.Mutex
	rows map[string]*models.EventRecord
	n    int64
}

func (m *memDurable) InsertEvent(_ context.Context, rec *models.EventRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[rec.EventID]; ok && rec.EventID != "" {
		return 0, eventprocessor.ErrDuplicateEvent
	}
	m.n++
	rec.ID = m.n
	m.rows[rec.EventID] = rec
	return rec.ID, nil
}

func (m *memDurable) ExistsByEventID(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	return ok, nil
}

type memDeadLetters struct {
	mu      sync.Mutex
	entries []*models.DeadLetter
}

func (m *memDeadLetters) InsertDeadLetter(_ context.Context, dl *models.DeadLetter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, dl)
	return int64(len(m.entries)), nil
}

func (m *memDeadLetters) all() []*models.DeadLetter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.DeadLetter(nil), m.entries...)
}

func newPipeline(t *testing.T) (Handler, *memDurable, *memDeadLetters, *kv.MemoryStore) {
	t.Helper()
	store := kv.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	durable := &memDurable{rows: make(map[string]*models.EventRecord)}
	dlq := &memDeadLetters{}

	proc := eventprocessor.NewProcessor(store, durable, nil, eventprocessor.ProcessorConfig{
		MarkerTTL:     24 * time.Hour,
		RateBucketTTL: 10 * time.Minute,
		Breaker:       config.BreakerConfig{FailureThreshold: 5, Timeout: time.Minute, MaxRequests: 1, CallTimeout: time.Second},
	})
	h := eventprocessor.NewRecordHandler(proc, eventprocessor.NewQuarantiner(dlq))
	return PipelineHandler(h), durable, dlq, store
}

func TestPipelineHandler_PoisonMessageIsQuarantinedAndCommitted(t *testing.T) {
	handler, durable, dlq, store := newPipeline(t)
	poison := &kgo.Record{Topic: "user-events", Partition: 0, Offset: 0, Value: []byte("not-json")}
	client := &fakeClient{batches: []kgo.Fetches{{{Topics: []kgo.FetchTopic{{
		Topic:      "user-events",
		Partitions: []kgo.FetchPartition{{Partition: 0, Records: []*kgo.Record{poison}}},
	}}}}}}
	c := New(client, handler, Config{Group: "g"})

	cancel, errCh := startConsumer(t, c)
	waitFor(t, "commit", func() bool { _, _, n := client.snapshot(); return n == 1 })
	cancel()
	waitRun(t, errCh)

	entries := dlq.all()
	if len(entries) != 1 {
		t.Fatalf("dead letters = %d, want 1", len(entries))
	}
	if entries[0].RawPayload != "not-json" {
		t.Errorf("rawPayload = %q, want not-json", entries[0].RawPayload)
	}
	if entries[0].ErrorMessage == "" {
		t.Error("errorMessage is empty")
	}
	if len(durable.rows) != 0 {
		t.Error("poison message produced a durable row")
	}
	if store.Len() != 0 {
		t.Error("poison message changed counters")
	}
	if _, marked, _ := client.snapshot(); marked != 1 {
		t.Errorf("marked = %d, want 1", marked)
	}
}

func TestPipelineHandler_DuplicateRedeliveryIsAcknowledged(t *testing.T) {
	handler, durable, _, store := newPipeline(t)
	value := []byte(`{"eventId":"dup-1","eventType":"PURCHASE","payload":{"amount":99},"region":"IN"}`)
	ctx := context.Background()

	handler.HandleRecord(ctx, &kgo.Record{Topic: "user-events", Offset: 0, Value: value})
	handler.HandleRecord(ctx, &kgo.Record{Topic: "user-events", Offset: 1, Value: value})

	if len(durable.rows) != 1 {
		t.Errorf("durable rows = %d, want 1", len(durable.rows))
	}
	total, _, _ := store.Get(ctx, kv.TotalKey)
	if total != 1 {
		t.Errorf("TOTAL = %d, want 1", total)
	}
}

func TestMonitorHandler(t *testing.T) {
	dlq := &memDeadLetters{}
	h := MonitorHandler(eventprocessor.NewQuarantiner(dlq))

	h.HandleRecord(context.Background(), &kgo.Record{Topic: "dead-letter-events", Value: []byte(`{"eventId":"x-1"}`)})

	entries := dlq.all()
	if len(entries) != 1 {
		t.Fatalf("dead letters = %d, want 1", len(entries))
	}
	if entries[0].ErrorMessage != eventprocessor.DLQMonitorMessage {
		t.Errorf("errorMessage = %q, want %q", entries[0].ErrorMessage, eventprocessor.DLQMonitorMessage)
	}
	if entries[0].EventID != "x-1" {
		t.Errorf("eventId = %q, want x-1", entries[0].EventID)
	}
}

func TestRefOf(t *testing.T) {
	ref := RefOf(&kgo.Record{Topic: "system-events", Partition: 2, Offset: 41})
	if ref.Topic != "system-events" || ref.Partition != 2 || ref.Offset != 41 {
		t.Errorf("RefOf() = %+v", ref)
	}
}
