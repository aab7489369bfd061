// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/pulse/internal/kv"
	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/models"
)

type processorFixture struct {
	clock   *fixedClock
	kv      *faultyKV
	durable *fakeDurable
	search  *fakeSearch
	proc    *Processor
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()
	clock := newFixedClock()
	store := &faultyKV{MemoryStore: kv.NewMemoryStore(kv.WithClock(clock.Now))}
	t.Cleanup(func() { _ = store.Close() })

	f := &processorFixture{
		clock:   clock,
		kv:      store,
		durable: newFakeDurable(),
		search:  newFakeSearch(),
	}
	f.proc = NewProcessor(f.kv, f.durable, f.search, testProcessorConfig(), WithClock(clock.Now))
	return f
}

func (f *processorFixture) process(t *testing.T, ev *models.DecodedEvent) Outcome {
	t.Helper()
	out, err := f.proc.Process(context.Background(), logging.RecordRef{Topic: "user-events"}, ev)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	return out
}

func TestProcessor_HappyPath(t *testing.T) {
	f := newProcessorFixture(t)
	ev := purchaseEvent("e-1")

	if out := f.process(t, ev); out != Done {
		t.Fatalf("Process() = %v, want done", out)
	}

	if n := f.durable.rowCount("e-1"); n != 1 {
		t.Errorf("durable rows = %d, want 1", n)
	}
	if f.search.count() != 1 {
		t.Errorf("search documents = %d, want 1", f.search.count())
	}
	if got := counter(t, f.kv, kv.EventTypeKey(models.EventTypePurchase)); got != 1 {
		t.Errorf("PURCHASE counter = %d, want 1", got)
	}
	if got := counter(t, f.kv, kv.TotalKey); got != 1 {
		t.Errorf("TOTAL counter = %d, want 1", got)
	}
	if got := counter(t, f.kv, kv.RegionKey("IN")); got != 1 {
		t.Errorf("IN region counter = %d, want 1", got)
	}
	if got := counter(t, f.kv, kv.RateKey(kv.MinuteBucket(f.clock.Now()))); got != 1 {
		t.Errorf("rate bucket = %d, want 1", got)
	}
	marked, err := f.kv.HasKey(context.Background(), kv.MarkerKey("e-1"))
	if err != nil || !marked {
		t.Errorf("marker set = %v (err %v), want true", marked, err)
	}

	rec := f.durable.byEventID["e-1"]
	if !rec.CreatedAt.Equal(ev.Timestamp) {
		t.Errorf("createdAt = %v, want event timestamp %v", rec.CreatedAt, ev.Timestamp)
	}
	if !rec.ProcessedAt.Equal(f.clock.Now()) {
		t.Errorf("processedAt = %v, want %v", rec.ProcessedAt, f.clock.Now())
	}
}

func TestProcessor_RedeliveryDroppedAtKVTier(t *testing.T) {
	f := newProcessorFixture(t)

	f.process(t, purchaseEvent("e-1"))
	if out := f.process(t, purchaseEvent("e-1")); out != Dropped {
		t.Fatalf("second delivery = %v, want dropped", out)
	}

	if n := f.durable.rowCount("e-1"); n != 1 {
		t.Errorf("durable rows = %d, want 1", n)
	}
	if got := counter(t, f.kv, kv.TotalKey); got != 1 {
		t.Errorf("TOTAL counter = %d, want 1", got)
	}
	if f.durable.insertCalls != 1 {
		t.Errorf("insert calls = %d, want 1", f.durable.insertCalls)
	}
	if got := f.proc.Stats(); got.Done != 1 || got.Dropped != 1 {
		t.Errorf("Stats() = %+v, want 1 done 1 dropped", got)
	}
}

func TestProcessor_MarkerLostDroppedAtDurableTier(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	f.process(t, purchaseEvent("e-1"))
	if err := f.kv.Expire(ctx, kv.MarkerKey("e-1"), 0); err != nil {
		t.Fatalf("Expire() error: %v", err)
	}

	if out := f.process(t, purchaseEvent("e-1")); out != Dropped {
		t.Fatalf("redelivery = %v, want dropped", out)
	}
	if got := counter(t, f.kv, kv.TotalKey); got != 1 {
		t.Errorf("TOTAL counter = %d, want 1", got)
	}
}

func TestProcessor_UniqueViolationDrops(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()

	f.process(t, purchaseEvent("e-1"))
	_ = f.kv.Expire(ctx, kv.MarkerKey("e-1"), 0)
	// The existence check fails, so only the constraint can catch it.
	f.durable.existsErr = errors.New("timeout")

	if out := f.process(t, purchaseEvent("e-1")); out != Dropped {
		t.Fatalf("redelivery = %v, want dropped", out)
	}
	if n := f.durable.rowCount("e-1"); n != 1 {
		t.Errorf("durable rows = %d, want 1", n)
	}
	if got := counter(t, f.kv, kv.TotalKey); got != 1 {
		t.Errorf("TOTAL counter = %d, want 1", got)
	}
	if f.search.calls != 1 {
		t.Errorf("search upserts = %d, want 1", f.search.calls)
	}
}

func TestProcessor_MissingEventID(t *testing.T) {
	f := newProcessorFixture(t)

	for i := 0; i < 2; i++ {
		if out := f.process(t, purchaseEvent("")); out != Done {
			t.Fatalf("delivery %d = %v, want done", i, out)
		}
	}

	if f.durable.existsCalls != 0 {
		t.Errorf("gate queried durable store %d times for an event without id", f.durable.existsCalls)
	}
	if n := f.durable.rowCount(""); n != 2 {
		t.Errorf("durable rows = %d, want 2", n)
	}
	if got := counter(t, f.kv, kv.TotalKey); got != 2 {
		t.Errorf("TOTAL counter = %d, want 2", got)
	}
	if f.kv.Len() != 4 {
		// TOTAL, PURCHASE, region IN, one rate bucket; no marker.
		t.Errorf("kv keys = %d, want 4", f.kv.Len())
	}
}

func TestProcessor_SearchSinkDown(t *testing.T) {
	f := newProcessorFixture(t)
	f.search.err = errors.New("connection refused")

	// Failures before the breaker opens are logged and do not stop the pipeline.
	for _, id := range []string{"e-1", "e-2"} {
		if out := f.process(t, purchaseEvent(id)); out != Done {
			t.Fatalf("%s = %v, want done", id, out)
		}
	}
	if !f.proc.searchBreaker.IsOpen() {
		t.Fatal("search breaker did not open")
	}

	callsBefore := f.search.calls
	if out := f.process(t, purchaseEvent("e-3")); out != Done {
		t.Fatalf("e-3 = %v, want done", out)
	}
	if f.search.calls != callsBefore {
		t.Error("open search breaker still called the sink")
	}
	if n := f.durable.rowCount("e-3"); n != 1 {
		t.Errorf("durable rows for e-3 = %d, want 1", n)
	}
	if got := counter(t, f.kv, kv.TotalKey); got != 3 {
		t.Errorf("TOTAL counter = %d, want 3", got)
	}
	if ok, _ := f.kv.HasKey(context.Background(), kv.MarkerKey("e-3")); !ok {
		t.Error("marker for e-3 not set")
	}
}

func TestProcessor_DurableSinkDown(t *testing.T) {
	f := newProcessorFixture(t)
	f.durable.insertErr = errors.New("connection refused")
	f.durable.existsErr = f.durable.insertErr

	for _, id := range []string{"e-1", "e-2", "e-3"} {
		if out := f.process(t, purchaseEvent(id)); out != Done {
			t.Fatalf("%s = %v, want done", id, out)
		}
	}

	if f.search.count() != 3 {
		t.Errorf("search documents = %d, want 3", f.search.count())
	}
	if got := counter(t, f.kv, kv.TotalKey); got != 3 {
		t.Errorf("TOTAL counter = %d, want 3", got)
	}
	if !f.proc.durableBreaker.IsOpen() {
		t.Error("durable breaker did not open")
	}
}

func TestProcessor_RejectedRowDoesNotTripBreaker(t *testing.T) {
	f := newProcessorFixture(t)
	rejected := fmt.Errorf("%w: value too long for type character varying(100)", ErrRejectedEvent)
	f.durable.insertErr = rejected

	for _, id := range []string{"e-1", "e-2", "e-3", "e-4", "e-5"} {
		_, err := f.proc.Process(context.Background(), logging.RecordRef{}, purchaseEvent(id))
		if !errors.Is(err, ErrRejectedEvent) {
			t.Fatalf("%s: Process() error = %v, want ErrRejectedEvent", id, err)
		}
		if ok, _ := f.kv.MemoryStore.HasKey(context.Background(), kv.MarkerKey(id)); ok {
			t.Errorf("%s: marked processed without a durable row", id)
		}
	}
	if f.proc.durableBreaker.IsOpen() {
		t.Error("durable breaker opened on rejected rows")
	}
	if got := counter(t, f.kv, kv.TotalKey); got != 0 {
		t.Errorf("TOTAL counter = %d, want 0", got)
	}

	f.durable.insertErr = nil
	if out := f.process(t, purchaseEvent("e-6")); out != Done {
		t.Fatalf("healthy event = %v, want done", out)
	}
	if f.durable.rowCount("e-6") != 1 {
		t.Error("healthy event skipped persistence")
	}
}

func TestProcessor_CounterFailureIsReturned(t *testing.T) {
	f := newProcessorFixture(t)
	f.kv.incrErr = errors.New("redis down")

	_, err := f.proc.Process(context.Background(), logging.RecordRef{}, purchaseEvent("e-1"))
	if err == nil {
		t.Fatal("Process() error = nil, want counter failure")
	}
	if ok, _ := f.kv.MemoryStore.HasKey(context.Background(), kv.MarkerKey("e-1")); ok {
		t.Error("marker set although counting failed")
	}
	if f.proc.Stats().Failed != 1 {
		t.Errorf("failed = %d, want 1", f.proc.Stats().Failed)
	}
}

func TestProcessor_MarkFailureIsReturned(t *testing.T) {
	f := newProcessorFixture(t)
	f.kv.setErr = errors.New("redis down")

	if _, err := f.proc.Process(context.Background(), logging.RecordRef{}, purchaseEvent("e-1")); err == nil {
		t.Fatal("Process() error = nil, want mark failure")
	}
}

func TestProcessor_UnknownTypeAndNullPayload(t *testing.T) {
	f := newProcessorFixture(t)
	ev := &models.DecodedEvent{
		EventID:   "e-1",
		EventType: "CUSTOM_THING",
		Timestamp: f.clock.Now(),
	}

	f.process(t, ev)

	if got := counter(t, f.kv, kv.EventTypeKey("CUSTOM_THING")); got != 1 {
		t.Errorf("CUSTOM_THING counter = %d, want 1", got)
	}
	if rec := f.durable.byEventID["e-1"]; rec.Payload != nil {
		t.Errorf("payload = %v, want nil", rec.Payload)
	}
	// No region means no region counter.
	if f.kv.Len() != 4 {
		t.Errorf("kv keys = %d, want 4", f.kv.Len())
	}
}

func TestProcessor_RateBucketFollowsClock(t *testing.T) {
	f := newProcessorFixture(t)

	f.process(t, purchaseEvent("e-1"))
	first := kv.MinuteBucket(f.clock.Now())
	f.clock.Advance(time.Minute)
	f.process(t, purchaseEvent("e-2"))
	second := kv.MinuteBucket(f.clock.Now())

	if first == second {
		t.Fatal("clock advance did not change the bucket")
	}
	for _, b := range []int64{first, second} {
		if got := counter(t, f.kv, kv.RateKey(b)); got != 1 {
			t.Errorf("bucket %d = %d, want 1", b, got)
		}
	}

	f.clock.Advance(10 * time.Minute)
	if _, ok, _ := f.kv.Get(context.Background(), kv.RateKey(first)); ok {
		t.Error("rate bucket outlived its TTL")
	}
}

func TestProcessor_SearchDisabled(t *testing.T) {
	store := kv.NewMemoryStore()
	durable := newFakeDurable()
	proc := NewProcessor(store, durable, nil, testProcessorConfig())

	out, err := proc.Process(context.Background(), logging.RecordRef{}, purchaseEvent("e-1"))
	if err != nil || out != Done {
		t.Fatalf("Process() = (%v, %v), want done", out, err)
	}
	if len(proc.Breakers()) != 1 {
		t.Errorf("breakers = %d, want 1 with search disabled", len(proc.Breakers()))
	}
}

func TestOutcome_String(t *testing.T) {
	tests := map[Outcome]string{
		Done:        "done",
		Dropped:     "dropped",
		Quarantined: "quarantined",
		Outcome(9):  "unknown",
	}
	for o, want := range tests {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %s, want %s", int(o), got, want)
		}
	}
}
