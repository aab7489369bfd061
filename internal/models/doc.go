// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

/*
Package models defines the data structures shared by the pipeline and the
HTTP API.

Key Components:

  - Event: the wire form of an event, as produced to Kafka and accepted by
    the write API
  - DecodedEvent: a consumed record after lenient decoding; unknown fields
    are ignored and a missing or unparsable timestamp becomes the
    processing time
  - EventRecord: the durable store row
  - EventDocument: the search index document
  - DeadLetter: a quarantined record with its error context
  - Page and PageRequest: zero-based paging of query results
  - DashboardSummary and RateSummary: counter store reads

Timestamps are serialized with TimestampLayout (ISO-8601, millisecond
precision, UTC offset) everywhere they leave the process.

API Response Models:

  - ErrorResponse: every non-2xx body, {"error": "..."}
  - EventAccepted, BatchAccepted, SimulationAccepted: 202 bodies of the
    write API
  - HealthStatus: liveness and readiness checks
*/
package models
