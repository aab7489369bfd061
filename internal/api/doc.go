// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

/*
Package api provides the HTTP layer of Pulse.

Routes:

	GET  /metrics                                   Prometheus exposition
	GET  /swagger/*                                 Swagger UI, OpenAPI document at /swagger/doc.json
	GET  /api/v1/health/live                        liveness
	GET  /api/v1/health/ready                       readiness (pings every sink)

	GET  /api/v1/analytics/dashboard                counter summary
	GET  /api/v1/analytics/rate                     rolling event rate
	GET  /api/v1/analytics/events/by-type/{type}    paged, newest first
	GET  /api/v1/analytics/events/by-user/{userId}
	GET  /api/v1/analytics/events/date-range        ?from=&to=
	GET  /api/v1/analytics/distribution/event-types
	GET  /api/v1/analytics/distribution/regions
	GET  /api/v1/analytics/distribution/sources
	GET  /api/v1/analytics/search/by-type/{type}    search index
	GET  /api/v1/analytics/search/by-user/{userId}
	GET  /api/v1/analytics/search/by-region/{region}
	GET  /api/v1/analytics/dead-letters

	POST /api/v1/events                             publish one event
	POST /api/v1/events/batch                       publish 1 to 100 events
	POST /api/v1/events/simulate                    ?count=, synthetic traffic

	GET  /api/v1/ws                                 live dashboard updates

Paged routes accept page (0-based) and size. Malformed values are rejected
with 400. The analytics service clamps negative pages and oversized sizes,
and rejects with 400 any page that ends past the durable store's
row limit or the search index's 10000-result window.

The write routes answer 202 once the event is handed to the producer. The
consumer processes it asynchronously, so a 202 says nothing about whether
the sinks accepted it. They are only mounted when a publisher is wired,
which is not the case for a read-only API deployment.

Every failure body is models.ErrorResponse.

# Middleware

Global: request ID, real IP, panic recovery, CORS, Prometheus metrics and
security headers. The analytics routes add gzip compression. Each route
group has its own httprate limiter keyed by client IP; health checks get
a permissive limit and simulation a strict one.
*/
package api
