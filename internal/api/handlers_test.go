// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/models"
	"github.com/tomtom215/pulse/internal/producer"
	"github.com/tomtom215/pulse/internal/validation"
)

// fakeAnalytics records the arguments of the last call and returns the
// configured results.
type fakeAnalytics struct {
	mu sync.Mutex

	err       error
	dashboard *models.DashboardSummary
	rate      *models.RateSummary
	records   models.Page[models.EventRecord]
	docs      models.Page[models.EventDocument]
	letters   models.Page[models.DeadLetter]
	types     []models.EventTypeCount
	regions   []models.RegionCount
	sources   []models.SourceCount

	lastMethod string
	lastArg    string
	lastPage   models.PageRequest
	lastFrom   time.Time
	lastTo     time.Time
}

func (f *fakeAnalytics) record(method, arg string, pr models.PageRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastMethod = method
	f.lastArg = arg
	f.lastPage = pr
}

func (f *fakeAnalytics) Dashboard(context.Context) (*models.DashboardSummary, error) {
	f.record("Dashboard", "", models.PageRequest{})
	return f.dashboard, f.err
}

func (f *fakeAnalytics) Rate(context.Context) (*models.RateSummary, error) {
	f.record("Rate", "", models.PageRequest{})
	return f.rate, f.err
}

func (f *fakeAnalytics) EventsByType(_ context.Context, eventType string, pr models.PageRequest) (models.Page[models.EventRecord], error) {
	f.record("EventsByType", eventType, pr)
	return f.records, f.err
}

func (f *fakeAnalytics) EventsByUser(_ context.Context, userID string, pr models.PageRequest) (models.Page[models.EventRecord], error) {
	f.record("EventsByUser", userID, pr)
	return f.records, f.err
}

func (f *fakeAnalytics) EventsBetween(_ context.Context, from, to time.Time, pr models.PageRequest) (models.Page[models.EventRecord], error) {
	f.record("EventsBetween", "", pr)
	f.mu.Lock()
	f.lastFrom, f.lastTo = from, to
	f.mu.Unlock()
	return f.records, f.err
}

func (f *fakeAnalytics) EventTypeDistribution(context.Context) ([]models.EventTypeCount, error) {
	f.record("EventTypeDistribution", "", models.PageRequest{})
	return f.types, f.err
}

func (f *fakeAnalytics) RegionDistribution(context.Context) ([]models.RegionCount, error) {
	f.record("RegionDistribution", "", models.PageRequest{})
	return f.regions, f.err
}

func (f *fakeAnalytics) SourceDistribution(context.Context) ([]models.SourceCount, error) {
	f.record("SourceDistribution", "", models.PageRequest{})
	return f.sources, f.err
}

func (f *fakeAnalytics) DeadLetters(_ context.Context, pr models.PageRequest) (models.Page[models.DeadLetter], error) {
	f.record("DeadLetters", "", pr)
	return f.letters, f.err
}

func (f *fakeAnalytics) SearchByType(_ context.Context, eventType string, pr models.PageRequest) (models.Page[models.EventDocument], error) {
	f.record("SearchByType", eventType, pr)
	return f.docs, f.err
}

func (f *fakeAnalytics) SearchByUser(_ context.Context, userID string, pr models.PageRequest) (models.Page[models.EventDocument], error) {
	f.record("SearchByUser", userID, pr)
	return f.docs, f.err
}

func (f *fakeAnalytics) SearchByRegion(_ context.Context, region string, pr models.PageRequest) (models.Page[models.EventDocument], error) {
	f.record("SearchByRegion", region, pr)
	return f.docs, f.err
}

// fakePublisher validates like the real publisher and keeps what it was
// asked to publish.
type fakePublisher struct {
	mu        sync.Mutex
	published []models.Event
	nextID    int
	err       error
}

func (p *fakePublisher) Prepare(ev *models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev.EventID == "" {
		p.nextID++
		ev.EventID = fmt.Sprintf("evt-%d", p.nextID)
	}
	if verr := validation.ValidateStruct(ev); verr != nil {
		return verr
	}
	return nil
}

func (p *fakePublisher) Publish(_ context.Context, ev *models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, *ev)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

// fakeSimulator clamps to [1, max] with def for non-positive counts.
type fakeSimulator struct {
	def, max int
	failAt   int
	lastRun  int
}

func (s *fakeSimulator) ClampCount(n int) int {
	switch {
	case n <= 0:
		return s.def
	case n > s.max:
		return s.max
	}
	return n
}

func (s *fakeSimulator) Run(_ context.Context, count int) (producer.SimulationResult, error) {
	s.lastRun = count
	if s.failAt > 0 && s.failAt <= count {
		return producer.SimulationResult{Simulated: s.failAt - 1, FirstEventID: "sim-1"}, fmt.Errorf("produce failed")
	}
	return producer.SimulationResult{Simulated: count, FirstEventID: "sim-1"}, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeBreaker struct{ name, state string }

func (b fakeBreaker) Name() string { return b.name }
func (b fakeBreaker) StateString() string { return b.state }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Security.RateLimitDisabled = true
	return cfg
}

type testEnv struct {
	analytics *fakeAnalytics
	publisher *fakePublisher
	simulator *fakeSimulator
	handler   *Handler
	server    http.Handler
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	env := &testEnv{
		analytics: &fakeAnalytics{},
		publisher: &fakePublisher{},
		simulator: &fakeSimulator{def: 100, max: 500},
	}
	env.handler = NewHandler(cfg, Dependencies{
		Analytics: env.analytics,
		Publisher: env.publisher,
		Simulator: env.simulator,
	})
	env.server = NewRouter(cfg, env.handler).SetupChi()
	return env
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func newRecorderFor(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[models.ErrorResponse](t, rec).Error
}

func eventsJSON(n int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"eventType":"CLICK","userId":"u%d","payload":{"i":%d}}`, i, i)
	}
	b.WriteByte(']')
	return b.String()
}
