// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tomtom215/pulse/internal/analytics"
	"github.com/tomtom215/pulse/internal/api"
	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/consumer"
	"github.com/tomtom215/pulse/internal/database"
	"github.com/tomtom215/pulse/internal/eventprocessor"
	"github.com/tomtom215/pulse/internal/kv"
	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/producer"
	"github.com/tomtom215/pulse/internal/search"
	"github.com/tomtom215/pulse/internal/supervisor"
	"github.com/tomtom215/pulse/internal/supervisor/services"
	ws "github.com/tomtom215/pulse/internal/websocket"
)

const (
	poolStatsInterval = 15 * time.Second
	closeTimeout      = 10 * time.Second
)

// roles selects which halves of the pipeline a process runs.
type roles struct {
	consumer bool
	api      bool
}

// app holds the backing stores shared by the consumer and the API.
type app struct {
	cfg       *config.Config
	store     kv.Store
	db        *database.DB
	index     *search.Index
	publisher *producer.Publisher
	processor *eventprocessor.Processor
}

// run opens the stores, builds the supervisor tree for r and serves it
// until ctx is canceled or the tree terminates.
func run(ctx context.Context, cfg *config.Config, r roles) error {
	a, err := openApp(ctx, cfg, r)
	if err != nil {
		return err
	}
	defer a.close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg))
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	a.addDataServices(tree)
	if r.consumer {
		if err := a.addConsumers(tree); err != nil {
			return err
		}
	}
	if r.api {
		a.addAPI(tree)
	}

	logging.Info().
		Bool("consumer", r.consumer).
		Bool("api", r.api).
		Int("data_services", tree.ServiceCount(supervisor.LayerData)).
		Int("messaging_services", tree.ServiceCount(supervisor.LayerMessaging)).
		Int("api_services", tree.ServiceCount(supervisor.LayerAPI)).
		Msg("Starting supervisor tree")

	err = tree.Serve(ctx)

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	logging.Info().Msg("Pulse stopped")
	return nil
}

// openApp connects the stores. The publisher is only created when the
// process serves the write API or forwards quarantined records.
func openApp(ctx context.Context, cfg *config.Config, r roles) (*app, error) {
	a := &app{cfg: cfg}

	store, err := kv.Open(&cfg.KV)
	if err != nil {
		return nil, fmt.Errorf("open kv store: %w", err)
	}
	a.store = store

	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db

	if cfg.Search.Enabled {
		index, err := search.New(&cfg.Search)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open search index: %w", err)
		}
		if cfg.Database.AutoMigrate {
			// the search breaker covers an index that is down at startup
			if err := index.EnsureIndex(ctx); err != nil {
				logging.Warn().Err(err).Str("index", index.Name()).Msg("Failed to ensure search index")
			}
		}
		a.index = index
	}

	if r.api || (r.consumer && cfg.DLQ.ForwardToTopic) {
		client, err := producer.NewClient(&cfg.Kafka)
		if err != nil {
			a.close()
			return nil, err
		}
		a.publisher = producer.NewPublisher(client, &cfg.Kafka)
	}

	logging.Info().
		Str("kv_backend", cfg.KV.Backend).
		Str("database", db.Driver()).
		Bool("search", a.index != nil).
		Bool("producer", a.publisher != nil).
		Msg("Backing stores opened")
	return a, nil
}

// close releases everything openApp opened. The consumers close their
// own Kafka clients when they stop.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if a.publisher != nil {
		if err := a.publisher.Close(ctx); err != nil {
			logging.Error().Err(err).Msg("Error closing producer")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing kv store")
		}
	}
}

func (a *app) addDataServices(tree *supervisor.SupervisorTree) {
	tree.AddDataService(services.NewPoolStatsService(a.db, poolStatsInterval))

	if badger, ok := kv.AsBadger(a.store); ok && a.cfg.KV.BadgerGCInterval > 0 {
		tree.AddDataService(services.NewBadgerGCService(badger, a.cfg.KV.BadgerGCInterval, a.cfg.KV.BadgerGCDiscardRatio))
	}
}

// searchSink keeps a disabled index a nil interface rather than a typed nil.
func (a *app) searchSink() eventprocessor.SearchIndex {
	if a.index == nil {
		return nil
	}
	return a.index
}

func (a *app) addConsumers(tree *supervisor.SupervisorTree) error {
	cfg := a.cfg
	a.processor = eventprocessor.NewProcessor(a.store, a.db, a.searchSink(), eventprocessor.ProcessorConfigFrom(cfg))

	qopts := []eventprocessor.QuarantineOption{eventprocessor.WithMaxErrorLength(cfg.DLQ.MaxErrorLength)}
	if cfg.DLQ.ForwardToTopic && a.publisher != nil {
		qopts = append(qopts, eventprocessor.WithForwarder(a.publisher))
	}
	quarantiner := eventprocessor.NewQuarantiner(a.db, qopts...)

	client, monitorClient, err := openConsumerClients(cfg, func(group string, topics []string) (*kgo.Client, error) {
		return consumer.NewClient(&cfg.Kafka, &cfg.Consumer, group, topics)
	})
	if err != nil {
		return err
	}
	handler := consumer.PipelineHandler(eventprocessor.NewRecordHandler(a.processor, quarantiner))
	tree.AddMessagingService(consumer.New(client, handler, consumer.ConfigFrom(&cfg.Consumer)))
	if monitorClient != nil {
		tree.AddMessagingService(consumer.New(monitorClient, consumer.MonitorHandler(quarantiner), consumer.MonitorConfigFrom(&cfg.Consumer)))
	}
	return nil
}

type clientOpener func(group string, topics []string) (*kgo.Client, error)

// openConsumerClients opens the pipeline client and, when the DLQ monitor
// is enabled, its client. On error no client is left open.
func openConsumerClients(cfg *config.Config, open clientOpener) (pipeline, monitor *kgo.Client, err error) {
	pipeline, err = open(cfg.Consumer.Group, cfg.Kafka.Topics())
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Consumer.DLQMonitorEnabled {
		return pipeline, nil, nil
	}
	monitor, err = open(cfg.Consumer.DLQGroup, []string{cfg.Kafka.DLQTopic})
	if err != nil {
		pipeline.Close()
		return nil, nil, err
	}
	return pipeline, monitor, nil
}

func (a *app) addAPI(tree *supervisor.SupervisorTree) {
	cfg := a.cfg

	var reader analytics.SearchReader
	if a.index != nil {
		reader = a.index
	}
	svc := analytics.NewService(a.store, a.db, reader, &cfg.API)

	deps := api.Dependencies{
		Analytics: svc,
		Sinks: map[string]api.Pinger{
			"database": a.db,
			"kv":       a.store,
		},
	}
	if a.index != nil {
		deps.Sinks["search"] = a.index
	}
	if a.processor != nil {
		for _, b := range a.processor.Breakers() {
			deps.Breakers = append(deps.Breakers, b)
		}
	}
	if a.publisher != nil {
		deps.Publisher = a.publisher
		deps.Simulator = producer.NewSimulator(a.publisher, &cfg.Simulate)
	}
	if cfg.Dashboard.WebsocketEnabled {
		hub := ws.NewHub()
		deps.Hub = hub
		tree.AddMessagingService(hub)
		tree.AddMessagingService(ws.NewDashboardBroadcaster(hub, svc, cfg.Dashboard.BroadcastInterval))
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(cfg, api.NewHandler(cfg, deps)).SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))
}
