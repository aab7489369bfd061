// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

/*
Package services adapts components that do not speak suture's Serve
pattern.

  - HTTPServerService runs an *http.Server, translating ListenAndServe and
    Shutdown into Serve with a graceful shutdown deadline.
  - BadgerGCService runs the Badger value log GC on a ticker.
  - PoolStatsService publishes the database pool gauges on a ticker.

The Kafka consumers, the websocket hub and the dashboard broadcaster
implement suture.Service themselves and are added to the tree directly.

Every wrapper implements fmt.Stringer; suture uses the name in its events.
*/
package services
