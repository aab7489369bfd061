// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package api

import (
	"context"
	"time"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/models"
	"github.com/tomtom215/pulse/internal/producer"
	ws "github.com/tomtom215/pulse/internal/websocket"
)

// AnalyticsService is the read side served under /api/v1/analytics.
// Satisfied by *analytics.Service.
type AnalyticsService interface {
	Dashboard(ctx context.Context) (*models.DashboardSummary, error)
	Rate(ctx context.Context) (*models.RateSummary, error)
	EventsByType(ctx context.Context, eventType string, pr models.PageRequest) (models.Page[models.EventRecord], error)
	EventsByUser(ctx context.Context, userID string, pr models.PageRequest) (models.Page[models.EventRecord], error)
	EventsBetween(ctx context.Context, from, to time.Time, pr models.PageRequest) (models.Page[models.EventRecord], error)
	EventTypeDistribution(ctx context.Context) ([]models.EventTypeCount, error)
	RegionDistribution(ctx context.Context) ([]models.RegionCount, error)
	SourceDistribution(ctx context.Context) ([]models.SourceCount, error)
	DeadLetters(ctx context.Context, pr models.PageRequest) (models.Page[models.DeadLetter], error)
	SearchByType(ctx context.Context, eventType string, pr models.PageRequest) (models.Page[models.EventDocument], error)
	SearchByUser(ctx context.Context, userID string, pr models.PageRequest) (models.Page[models.EventDocument], error)
	SearchByRegion(ctx context.Context, region string, pr models.PageRequest) (models.Page[models.EventDocument], error)
}

// EventPublisher puts events on the log. Satisfied by *producer.Publisher.
type EventPublisher interface {
	Prepare(ev *models.Event) error
	Publish(ctx context.Context, ev *models.Event) error
}

// EventSimulator generates synthetic traffic. Satisfied by *producer.Simulator.
type EventSimulator interface {
	ClampCount(n int) int
	Run(ctx context.Context, count int) (producer.SimulationResult, error)
}

// Pinger is a backing store that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerState reports a circuit breaker. Satisfied by *eventprocessor.Breaker.
type BreakerState interface {
	Name() string
	StateString() string
}

// Dependencies are the collaborators of the HTTP handlers. Publisher and
// Simulator may be nil, which leaves the write routes unmounted; Hub may
// be nil, which leaves the websocket route unmounted.
type Dependencies struct {
	Analytics AnalyticsService
	Publisher EventPublisher
	Simulator EventSimulator
	Hub       *ws.Hub
	Sinks     map[string]Pinger
	Breakers  []BreakerState
}

// Handler serves the HTTP API.
type Handler struct {
	analytics    AnalyticsService
	publisher    EventPublisher
	simulator    EventSimulator
	wsHub        *ws.Hub
	sinks        map[string]Pinger
	breakers     []BreakerState
	config       *config.Config
	startTime    time.Time
	pingTimeout  time.Duration
	maxBodyBytes int64
}

// defaultPingTimeout bounds each sink ping of the readiness check.
const defaultPingTimeout = 2 * time.Second

// NewHandler creates the HTTP handlers.
func NewHandler(cfg *config.Config, deps Dependencies) *Handler {
	return &Handler{
		analytics:    deps.Analytics,
		publisher:    deps.Publisher,
		simulator:    deps.Simulator,
		wsHub:        deps.Hub,
		sinks:        deps.Sinks,
		breakers:     deps.Breakers,
		config:       cfg,
		startTime:    time.Now(),
		pingTimeout:  defaultPingTimeout,
		maxBodyBytes: cfg.API.MaxBodyBytes,
	}
}
