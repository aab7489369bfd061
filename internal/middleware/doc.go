// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

/*
Package middleware provides HTTP middleware for the Pulse API.

Every middleware has the func(http.Handler) http.Handler shape, so it plugs
into chi's Use and With directly.

Key Components:

  - RequestID: X-Request-ID propagation bound to the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge per chi route pattern
  - Compression: gzip for clients that accept it

Middleware Stack:

The API router applies them as:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)

	r.Route("/api/v1/analytics", func(r chi.Router) {
	    r.Use(middleware.Compression)
	    ...
	})

PrometheusMetrics reads the route pattern after the handler returns, so it
must be installed with Use on a chi router rather than wrapped around one.

Thread Safety:

All middleware components are safe for concurrent use. Compression pools
its gzip writers; request ids travel in the request context.

See Also:

  - internal/api: router and handlers
  - internal/metrics: Prometheus metric definitions
  - internal/logging: request and correlation id context
*/
package middleware
