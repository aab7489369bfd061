// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

/*
Package producer publishes analytics events onto the log.

Routing:

	ERROR, SYSTEM_HEALTH, LATENCY, SERVER_START  -> system-events
	everything else                              -> user-events

Matching is case-insensitive. The record key is the event's userId, or
its eventId when there is no user, so a user's events land on one
partition in order.

Publisher.Publish fills in a missing eventId (UUID v4) and timestamp,
validates the event and hands the record to franz-go asynchronously.
Failures surface in the produce callback as a log line and the
pulse_events_published_total{result="failure"} counter.

Publisher.Forward writes quarantined raw records to the dead-letter topic
and satisfies eventprocessor.Forwarder.

Simulator generates synthetic traffic from fixed value pools and paces it
with a golang.org/x/time/rate limiter.
*/
package producer
