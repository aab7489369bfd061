// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tomtom215/pulse/internal/config"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout is how long each service gets to return after its
	// context is canceled.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's own defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// shutdownGrace is added on top of the longest service drain so suture
// does not abandon a service that is still inside its own deadline.
const shutdownGrace = 2 * time.Second

// TreeConfigFrom derives the tree configuration from the application
// config. The shutdown timeout covers both the HTTP drain and the
// consumer's in-flight batch drain.
func TreeConfigFrom(cfg *config.Config) TreeConfig {
	tc := DefaultTreeConfig()
	drain := cfg.Server.ShutdownTimeout
	if cfg.Consumer.DrainTimeout > drain {
		drain = cfg.Consumer.DrainTimeout
	}
	if drain > 0 {
		tc.ShutdownTimeout = drain + shutdownGrace
	}
	return tc
}

// SupervisorTree is the process supervision tree of Pulse.
//
// The tree is organized into three layers:
//   - data: storage maintenance (Badger value log GC)
//   - messaging: the pipeline consumer, the DLQ monitor, the websocket hub
//     and the dashboard broadcaster
//   - api: HTTP server
//
// Each layer counts failures on its own, so a consumer stuck in a restart
// loop backs off without taking the read API down with it.
type SupervisorTree struct {
	root      *suture.Supervisor
	data      *suture.Supervisor
	messaging *suture.Supervisor
	api       *suture.Supervisor
	logger    *slog.Logger
	config    TreeConfig

	counts map[string]int
}

// NewSupervisorTree creates a new supervisor tree with the given configuration.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	defaults := DefaultTreeConfig()
	if config.FailureThreshold == 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = defaults.FailureDecay
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = defaults.FailureBackoff
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}

	// MustHook has a pointer receiver.
	handler := &sutureslog.Handler{Logger: logger}
	eventHook := handler.MustHook()

	rootSpec := suture.Spec{
		EventHook:        eventHook,
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	// Children inherit the EventHook when added to the root.
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("pulse", rootSpec)
	data := suture.New(LayerData, childSpec)
	messaging := suture.New(LayerMessaging, childSpec)
	api := suture.New(LayerAPI, childSpec)

	root.Add(data)
	root.Add(messaging)
	root.Add(api)

	return &SupervisorTree{
		root:      root,
		data:      data,
		messaging: messaging,
		api:       api,
		logger:    logger,
		config:    config,
		counts:    make(map[string]int, 3),
	}, nil
}

// Layer names, as they appear in supervisor events.
const (
	LayerData      = "data-layer"
	LayerMessaging = "messaging-layer"
	LayerAPI       = "api-layer"
)

// Root returns the root supervisor for direct access if needed.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// AddDataService adds a storage maintenance service.
func (t *SupervisorTree) AddDataService(svc suture.Service) suture.ServiceToken {
	return t.add(LayerData, t.data, svc)
}

// AddMessagingService adds a consumer, the hub or the broadcaster.
func (t *SupervisorTree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	return t.add(LayerMessaging, t.messaging, svc)
}

// AddAPIService adds the HTTP server.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.add(LayerAPI, t.api, svc)
}

func (t *SupervisorTree) add(layer string, sup *suture.Supervisor, svc suture.Service) suture.ServiceToken {
	t.counts[layer]++
	t.logger.Debug("service added", "layer", layer, "service", serviceName(svc))
	return sup.Add(svc)
}

// ServiceCount returns how many services were added to layer. Services
// are added before Serve and never removed.
func (t *SupervisorTree) ServiceCount(layer string) int {
	return t.counts[layer]
}

// Serve starts the supervisor tree and blocks until the context is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the supervisor tree in a background goroutine.
// Returns a channel that receives the error (or nil) when the supervisor stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport returns the services that did not stop within the
// shutdown timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

func serviceName(svc suture.Service) string {
	if s, ok := svc.(interface{ String() string }); ok {
		return s.String()
	}
	return "unnamed"
}
