// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package producer

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/metrics"
	"github.com/tomtom215/pulse/internal/models"
)

// Value pools for synthesized events.
var (
	SimulatedEventTypes = []string{
		models.EventTypePageView,
		models.EventTypePurchase,
		models.EventTypeLogin,
		models.EventTypeLogout,
		models.EventTypeAddToCart,
		models.EventTypeSearch,
		models.EventTypeError,
		models.EventTypeClick,
	}
	SimulatedUsers   = []string{"user_101", "user_202", "user_303", "user_404", "user_505"}
	SimulatedSources = []string{"web", "mobile-android", "mobile-ios"}
	SimulatedRegions = []string{"IN", "US", "EU", "APAC"}
	SimulatedPages   = []string{"/home", "/products", "/cart", "/checkout"}
	SimulatedErrors  = []string{"500", "404", "503"}
)

const simulatedSessions = 1000

// EventPublisher publishes a single event.
type EventPublisher interface {
	Publish(ctx context.Context, ev *models.Event) error
}

// SimulationResult summarizes a simulation run.
type SimulationResult struct {
	Simulated    int
	FirstEventID string
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithRand seeds the simulator's random source.
func WithRand(rng *rand.Rand) SimulatorOption {
	return func(s *Simulator) { s.rng = rng }
}

// WithLimiter replaces the publish pacing limiter.
func WithLimiter(l *rate.Limiter) SimulatorOption {
	return func(s *Simulator) { s.limiter = l }
}

// WithSimulatorClock replaces the clock used for payload timestamps.
func WithSimulatorClock(now func() time.Time) SimulatorOption {
	return func(s *Simulator) { s.now = now }
}

// Simulator synthesizes random events and publishes them at a bounded rate.
type Simulator struct {
	publisher    EventPublisher
	limiter      *rate.Limiter
	defaultCount int
	maxCount     int
	now          func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator creates a simulator publishing through pub.
func NewSimulator(pub EventPublisher, cfg *config.SimulateConfig, opts ...SimulatorOption) *Simulator {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	s := &Simulator{
		publisher:    pub,
		limiter:      rate.NewLimiter(limit, 1),
		defaultCount: cfg.DefaultCount,
		maxCount:     cfg.MaxCount,
		now:          time.Now,
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClampCount maps a requested count onto [1, max]. Zero means the default.
func (s *Simulator) ClampCount(n int) int {
	switch {
	case n == 0:
		n = s.defaultCount
	case n < 0:
		n = 1
	}
	if n > s.maxCount {
		n = s.maxCount
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Run synthesizes and publishes count events (after clamping). On a
// publish or pacing failure it returns the events published so far.
func (s *Simulator) Run(ctx context.Context, count int) (SimulationResult, error) {
	count = s.ClampCount(count)
	var result SimulationResult
	for i := 0; i < count; i++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("simulate: %w", err)
		}
		ev := s.Generate()
		if err := s.publisher.Publish(ctx, &ev); err != nil {
			return result, fmt.Errorf("simulate event %d: %w", i, err)
		}
		metrics.EventsSimulated.Inc()
		if result.Simulated == 0 {
			result.FirstEventID = ev.EventID
		}
		result.Simulated++
	}

	logging.Info().
		Int("simulated", result.Simulated).
		Str("first_event_id", result.FirstEventID).
		Msg("Simulation published")
	return result, nil
}

// Generate builds one random event. The event id and timestamp are left
// for the publisher to fill in.
func (s *Simulator) Generate() models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	eventType := pick(s.rng, SimulatedEventTypes)
	return models.Event{
		EventType: eventType,
		UserID:    pick(s.rng, SimulatedUsers),
		SessionID: "session_" + strconv.Itoa(s.rng.IntN(simulatedSessions)),
		Payload:   s.payload(eventType),
		Source:    pick(s.rng, SimulatedSources),
		Region:    pick(s.rng, SimulatedRegions),
	}
}

// payload builds the type-specific payload. Callers hold s.mu.
func (s *Simulator) payload(eventType string) map[string]interface{} {
	p := map[string]interface{}{
		"timestamp_ms": s.now().UnixMilli(),
	}
	switch eventType {
	case models.EventTypePageView:
		p["page"] = pick(s.rng, SimulatedPages)
		p["duration_ms"] = s.rng.IntN(5000) + 500
	case models.EventTypePurchase:
		p["amount"] = math.Round((s.rng.Float64()*5000+100)*100) / 100
		p["currency"] = "INR"
		p["items"] = s.rng.IntN(5) + 1
	case models.EventTypeError:
		p["errorCode"] = pick(s.rng, SimulatedErrors)
		p["message"] = "Simulated error"
	default:
		p["action"] = strings.ToLower(eventType)
	}
	return p
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}
