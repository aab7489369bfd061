// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/middleware"
)

// Router sets up HTTP routes using the Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for h with middleware configured from cfg.
func NewRouter(cfg *config.Config, h *Handler) *Router {
	return &Router{
		handler:       h,
		chiMiddleware: NewChiMiddleware(ChiMiddlewareConfigFrom(&cfg.Security)),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(middleware.PrometheusMetrics)
	r.Use(APISecurityHeaders())

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// API documentation, served from the document registered by the docs package
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Permissive limit so orchestrators can poll freely
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/analytics", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.Compression)

		r.Get("/dashboard", router.handler.Dashboard)
		r.Get("/rate", router.handler.Rate)

		r.Get("/events/by-type/{type}", router.handler.EventsByType)
		r.Get("/events/by-user/{userId}", router.handler.EventsByUser)
		r.Get("/events/date-range", router.handler.EventsByDateRange)

		r.Get("/distribution/event-types", router.handler.EventTypeDistribution)
		r.Get("/distribution/regions", router.handler.RegionDistribution)
		r.Get("/distribution/sources", router.handler.SourceDistribution)

		r.Get("/search/by-type/{type}", router.handler.SearchByType)
		r.Get("/search/by-user/{userId}", router.handler.SearchByUser)
		r.Get("/search/by-region/{region}", router.handler.SearchByRegion)

		r.Get("/dead-letters", router.handler.DeadLetters)
	})

	if router.handler.publisher != nil {
		r.Route("/api/v1/events", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Post("/", router.handler.PublishEvent)
			r.Post("/batch", router.handler.PublishBatch)
			if router.handler.simulator != nil {
				r.With(router.chiMiddleware.RateLimitSimulate()).Post("/simulate", router.handler.Simulate)
			}
		})
	}

	if router.handler.wsHub != nil {
		r.Get("/api/v1/ws", router.handler.WebSocket)
	}

	return r
}
