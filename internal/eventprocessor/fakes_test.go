// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package eventprocessor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/kv"
	"github.com/tomtom215/pulse/internal/models"
)

// fakeDurable is an in-memory durable store with a unique event_id.
type fakeDurable struct {
	mu          sync.Mutex
	rows        []*models.EventRecord
	byEventID   map[string]*models.EventRecord
	insertErr   error
	existsErr   error
	insertCalls int
	existsCalls int
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{byEventID: make(map[string]*models.EventRecord)}
}

func (f *fakeDurable) InsertEvent(_ context.Context, rec *models.EventRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	if rec.EventID != "" {
		if _, ok := f.byEventID[rec.EventID]; ok {
			return 0, ErrDuplicateEvent
		}
	}
	rec.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, rec)
	if rec.EventID != "" {
		f.byEventID[rec.EventID] = rec
	}
	return rec.ID, nil
}

func (f *fakeDurable) ExistsByEventID(_ context.Context, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsCalls++
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.byEventID[eventID]
	return ok, nil
}

func (f *fakeDurable) rowCount(eventID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.EventID == eventID {
			n++
		}
	}
	return n
}

// fakeSearch is an in-memory search index.
type fakeSearch struct {
	mu    sync.Mutex
	docs  map[string]*models.EventDocument
	err   error
	calls int
}

func newFakeSearch() *fakeSearch {
	return &fakeSearch{docs: make(map[string]*models.EventDocument)}
}

func (f *fakeSearch) Upsert(_ context.Context, doc *models.EventDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.docs[doc.EventID] = doc
	return nil
}

func (f *fakeSearch) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

// fakeDeadLetters records dead letters.
type fakeDeadLetters struct {
	mu      sync.Mutex
	entries []*models.DeadLetter
	err     error
}

func (f *fakeDeadLetters) InsertDeadLetter(_ context.Context, dl *models.DeadLetter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	dl.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, dl)
	return dl.ID, nil
}

func (f *fakeDeadLetters) all() []*models.DeadLetter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.DeadLetter(nil), f.entries...)
}

// faultyKV wraps a memory store and fails selected operations.
type faultyKV struct {
	*kv.MemoryStore
	incrErr   error
	setErr    error
	hasKeyErr error
}

func (f *faultyKV) Incr(ctx context.Context, key string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	return f.MemoryStore.Incr(ctx, key)
}

func (f *faultyKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryStore.Set(ctx, key, value, ttl)
}

func (f *faultyKV) HasKey(ctx context.Context, key string) (bool, error) {
	if f.hasKeyErr != nil {
		return false, f.hasKeyErr
	}
	return f.MemoryStore.HasKey(ctx, key)
}

// fakeForwarder records forwarded records.
type fakeForwarder struct {
	mu      sync.Mutex
	records [][]byte
	err     error
}

func (f *fakeForwarder) Forward(_ context.Context, _, raw []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, raw)
	return f.err
}

// testBreakerConfig trips after two failures and recovers quickly.
func testBreakerConfig() config.BreakerConfig {
	return config.BreakerConfig{
		FailureThreshold: 2,
		Timeout:          time.Hour,
		MaxRequests:      1,
		CallTimeout:      time.Second,
	}
}

func testProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		MarkerTTL:     24 * time.Hour,
		RateBucketTTL: 10 * time.Minute,
		Breaker:       testBreakerConfig(),
	}
}

// fixedClock is a settable clock shared by the processor and the memory store.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func counter(t testing.TB, store kv.Store, key string) int64 {
	t.Helper()
	v, _, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%s) error: %v", key, err)
	}
	return v
}

func purchaseEvent(id string) *models.DecodedEvent {
	return &models.DecodedEvent{
		EventID:   id,
		EventType: models.EventTypePurchase,
		UserID:    "u1",
		Payload:   map[string]interface{}{"amount": float64(99)},
		Region:    "IN",
		Timestamp: time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC),
	}
}
