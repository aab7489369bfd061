// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

/*
Package websocket pushes the live dashboard summary to browser subscribers.

It uses gorilla/websocket with a hub-client architecture:

  - Hub: owns the client set and fans messages out to every client
  - Client: one connection with a read goroutine and a write goroutine
  - DashboardBroadcaster: reads the dashboard summary on a ticker and
    hands it to the hub

Message Types:

  - dashboard_update: a models.DashboardSummary, pushed every broadcast interval
  - ping / pong: application-level keepalive sent by the client

Usage Example:

	hub := websocket.NewHub()
	broadcaster := websocket.NewDashboardBroadcaster(hub, analyticsService, 5*time.Second)

	tree.AddAPIService(hub)
	tree.AddAPIService(broadcaster)

	// in the HTTP handler, after upgrading
	client := websocket.NewClient(hub, conn)
	hub.Register <- client
	client.Start()

Backpressure:

Each client has a small send buffer. A client whose buffer is full when a
broadcast arrives is disconnected instead of slowing the hub down. The
broadcaster skips the summary read entirely while nobody is connected.

Thread Safety:

Hub and DashboardBroadcaster are safe for concurrent use. A Client's
connection is only read by its read goroutine and only written by its write
goroutine.
*/
package websocket
