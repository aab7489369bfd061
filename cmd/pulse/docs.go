// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

// Pulse API provides event ingestion and read-side analytics over the
// durable store, the search index and the counter store.
//
// @title Pulse Event Analytics API
// @version 1.0
// @description Event ingestion and analytics for the Pulse pipeline.
// @description
// @description ## Paging
// @description
// @description Paged endpoints take `page` (0-based, default 0) and `size` (default 20, capped at the configured maximum).
// @description Pages past the store's row limit, or past the 10000-result search window, answer 400.
// @description
// @description ## Error Responses
// @description
// @description All error responses carry a single message:
// @description ```json
// @description { "error": "Human-readable error message" }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/pulse/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /
// @schemes http https
//
// @tag.name Health
// @tag.description Liveness and readiness of the API and its sinks
//
// @tag.name Analytics
// @tag.description Dashboard, rate, paged event queries, distributions and dead letters
//
// @tag.name Search
// @tag.description Full-text index queries, 503 when search is disabled
//
// @tag.name Events
// @tag.description Event publishing and load simulation
//
// @tag.name Realtime
// @tag.description Live dashboard updates over WebSocket
package main

//go:generate swag init --generalInfo docs.go --dir ./,../../internal/api,../../internal/models --output ../../docs --parseInternal
