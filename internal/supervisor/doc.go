// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

/*
Package supervisor provides process supervision for Pulse using suture v4.

# Overview

Long-running components are organized into three layers:

	pulse
	├── data-layer
	│   └── badger-gc              (kv.backend = badger)
	├── messaging-layer
	│   ├── event-consumer         (consumer, all)
	│   ├── dlq-monitor            (consumer.dlq_monitor_enabled)
	│   ├── websocket-hub          (api, all)
	│   └── dashboard-broadcaster  (dashboard.websocket_enabled)
	└── api-layer
	    └── http-server            (api, all)

Each layer has its own failure counter and backoff, so a consumer that
keeps failing against an unreachable broker does not stop the read API.

A consumer whose Kafka client is closed outside shutdown returns
suture.ErrTerminateSupervisorTree: the whole tree stops and the process
exits non-zero, leaving the restart to the process manager.

# Logging

Supervisor events (service failures, restarts, backoff) go through the
sutureslog hook. Pass logging.NewSlogLogger() so they end up in the
zerolog output alongside everything else:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg))
	tree.AddMessagingService(pipelineConsumer)
	tree.AddAPIService(services.NewHTTPServerService(server, addr, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)

# Shutdown

Canceling the context passed to Serve stops every service. The shutdown
timeout of TreeConfigFrom covers the longer of the HTTP drain and the
consumer batch drain. Services still running after it are listed by
UnstoppedServiceReport.
*/
package supervisor
