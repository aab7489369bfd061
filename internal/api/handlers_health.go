// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package api

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/tomtom215/pulse/internal/models"
)

// Health status values.
const (
	StatusAlive    = "alive"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// HealthLive handles GET /api/v1/health/live. It answers 200 while the
// process is serving, regardless of dependencies.
// @Summary Liveness
// @Description Answers 200 while the process serves requests
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthStatus
// @Router /api/v1/health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{Status: StatusAlive})
}

// HealthReady handles GET /api/v1/health/ready. Every sink is pinged
// concurrently; any failure makes the check answer 503. Breaker states
// are reported for operators but do not affect readiness, since an open
// breaker already shows up as a failing ping of its sink.
// @Summary Readiness
// @Description Pings every sink and reports breaker states
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthStatus
// @Failure 503 {object} models.HealthStatus
// @Router /api/v1/health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	sinks := h.pingSinks(r.Context())

	ready := true
	for _, s := range sinks {
		if !s.Healthy {
			ready = false
		}
	}

	var breakers map[string]string
	if len(h.breakers) > 0 {
		breakers = make(map[string]string, len(h.breakers))
		for _, b := range h.breakers {
			breakers[b.Name()] = b.StateString()
		}
	}

	status, code := StatusReady, http.StatusOK
	if !ready {
		status, code = StatusNotReady, http.StatusServiceUnavailable
	}
	respondJSON(w, code, models.HealthStatus{
		Status:   status,
		Sinks:    sinks,
		Breakers: breakers,
	})
}

func (h *Handler) pingSinks(ctx context.Context) map[string]models.SinkHealth {
	names := make([]string, 0, len(h.sinks))
	for name := range h.sinks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]models.SinkHealth, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, p Pinger) {
			defer wg.Done()
			pingCtx, cancel := context.WithTimeout(ctx, h.pingTimeout)
			defer cancel()
			if err := p.Ping(pingCtx); err != nil {
				results[i] = models.SinkHealth{Healthy: false, Error: err.Error()}
				return
			}
			results[i] = models.SinkHealth{Healthy: true}
		}(i, h.sinks[name])
	}
	wg.Wait()

	out := make(map[string]models.SinkHealth, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	return out
}
