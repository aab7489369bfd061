// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/pulse/internal/analytics"
	"github.com/tomtom215/pulse/internal/models"
)

const msgInternalError = "internal server error"

// Dashboard handles GET /api/v1/analytics/dashboard.
// @Summary Dashboard summary
// @Description Returns total events, per-type and per-region counts and the last five minutes from the counter store
// @Tags Analytics
// @Produce json
// @Success 200 {object} models.DashboardSummary
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/analytics/dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Dashboard(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, msgInternalError, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Rate handles GET /api/v1/analytics/rate.
// @Summary Event rate
// @Description Returns event counts over the last 1, 5, 15 and 60 minutes
// @Tags Analytics
// @Produce json
// @Success 200 {object} models.RateSummary
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/analytics/rate [get]
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.analytics.Rate(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, msgInternalError, err)
		return
	}
	respondJSON(w, http.StatusOK, rate)
}

// EventsByType handles GET /api/v1/analytics/events/by-type/{type}.
// @Summary Events by type
// @Description Returns stored events of one type, newest first
// @Tags Analytics
// @Produce json
// @Param type path string true "Event type"
// @Param page query int false "0-based page" default(0)
// @Param size query int false "Page size, capped at api.max_page_size" default(20)
// @Success 200 {object} models.Page-models_EventRecord
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/analytics/events/by-type/{type} [get]
func (h *Handler) EventsByType(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(ctx context.Context, pr models.PageRequest) (models.Page[models.EventRecord], error) {
		return h.analytics.EventsByType(ctx, chi.URLParam(r, "type"), pr)
	})
}

// EventsByUser handles GET /api/v1/analytics/events/by-user/{userId}.
// @Summary Events by user
// @Description Returns stored events of one user, newest first
// @Tags Analytics
// @Produce json
// @Param userId path string true "User ID"
// @Param page query int false "0-based page" default(0)
// @Param size query int false "Page size, capped at api.max_page_size" default(20)
// @Success 200 {object} models.Page-models_EventRecord
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/analytics/events/by-user/{userId} [get]
func (h *Handler) EventsByUser(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(ctx context.Context, pr models.PageRequest) (models.Page[models.EventRecord], error) {
		return h.analytics.EventsByUser(ctx, chi.URLParam(r, "userId"), pr)
	})
}

// EventsByDateRange handles GET /api/v1/analytics/events/date-range?from=&to=.
// @Summary Events in a date range
// @Description Returns stored events created between from and to, both inclusive
// @Tags Analytics
// @Produce json
// @Param from query string true "ISO-8601 start"
// @Param to query string true "ISO-8601 end"
// @Param page query int false "0-based page" default(0)
// @Param size query int false "Page size, capped at api.max_page_size" default(20)
// @Success 200 {object} models.Page-models_EventRecord
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/analytics/events/date-range [get]
func (h *Handler) EventsByDateRange(w http.ResponseWriter, r *http.Request) {
	dr, err := parseDateRange(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	servePage(w, r, func(ctx context.Context, pr models.PageRequest) (models.Page[models.EventRecord], error) {
		return h.analytics.EventsBetween(ctx, dr.from, dr.to, pr)
	})
}

// EventTypeDistribution handles GET /api/v1/analytics/distribution/event-types.
// @Summary Event type distribution
// @Description Returns event counts grouped by type, most frequent first
// @Tags Analytics
// @Produce json
// @Success 200 {array} models.EventTypeCount
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/analytics/distribution/event-types [get]
func (h *Handler) EventTypeDistribution(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.analytics.EventTypeDistribution)
}

// RegionDistribution handles GET /api/v1/analytics/distribution/regions.
// @Summary Region distribution
// @Description Returns event counts grouped by region, most frequent first
// @Tags Analytics
// @Produce json
// @Success 200 {array} models.RegionCount
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/analytics/distribution/regions [get]
func (h *Handler) RegionDistribution(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.analytics.RegionDistribution)
}

// SourceDistribution handles GET /api/v1/analytics/distribution/sources.
// @Summary Source distribution
// @Description Returns event counts grouped by source, most frequent first
// @Tags Analytics
// @Produce json
// @Success 200 {array} models.SourceCount
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/analytics/distribution/sources [get]
func (h *Handler) SourceDistribution(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.analytics.SourceDistribution)
}

// DeadLetters handles GET /api/v1/analytics/dead-letters.
// @Summary Dead letters
// @Description Returns quarantined records, newest first
// @Tags Analytics
// @Produce json
// @Param page query int false "0-based page" default(0)
// @Param size query int false "Page size, capped at api.max_page_size" default(20)
// @Success 200 {object} models.Page-models_DeadLetter
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/analytics/dead-letters [get]
func (h *Handler) DeadLetters(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, h.analytics.DeadLetters)
}

// SearchByType handles GET /api/v1/analytics/search/by-type/{type}.
// @Summary Search by type
// @Description Returns indexed events of one type, newest first
// @Tags Search
// @Produce json
// @Param type path string true "Event type"
// @Param page query int false "0-based page" default(0)
// @Param size query int false "Page size, capped at api.max_page_size" default(20)
// @Success 200 {object} models.Page-models_EventDocument
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/v1/analytics/search/by-type/{type} [get]
func (h *Handler) SearchByType(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(ctx context.Context, pr models.PageRequest) (models.Page[models.EventDocument], error) {
		return h.analytics.SearchByType(ctx, chi.URLParam(r, "type"), pr)
	})
}

// SearchByUser handles GET /api/v1/analytics/search/by-user/{userId}.
// @Summary Search by user
// @Description Returns indexed events of one user, newest first
// @Tags Search
// @Produce json
// @Param userId path string true "User ID"
// @Param page query int false "0-based page" default(0)
// @Param size query int false "Page size, capped at api.max_page_size" default(20)
// @Success 200 {object} models.Page-models_EventDocument
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/v1/analytics/search/by-user/{userId} [get]
func (h *Handler) SearchByUser(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(ctx context.Context, pr models.PageRequest) (models.Page[models.EventDocument], error) {
		return h.analytics.SearchByUser(ctx, chi.URLParam(r, "userId"), pr)
	})
}

// SearchByRegion handles GET /api/v1/analytics/search/by-region/{region}.
// @Summary Search by region
// @Description Returns indexed events of one region, newest first
// @Tags Search
// @Produce json
// @Param region path string true "Region"
// @Param page query int false "0-based page" default(0)
// @Param size query int false "Page size, capped at api.max_page_size" default(20)
// @Success 200 {object} models.Page-models_EventDocument
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/v1/analytics/search/by-region/{region} [get]
func (h *Handler) SearchByRegion(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, func(ctx context.Context, pr models.PageRequest) (models.Page[models.EventDocument], error) {
		return h.analytics.SearchByRegion(ctx, chi.URLParam(r, "region"), pr)
	})
}

// servePage parses paging parameters, runs query and writes the page.
func servePage[T any](w http.ResponseWriter, r *http.Request, query func(context.Context, models.PageRequest) (models.Page[T], error)) {
	pr, err := pageRequest(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	page, err := query(r.Context(), pr)
	if err != nil {
		respondQueryError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// serveList runs an unpaged query and writes the rows, [] when empty.
func serveList[T any](w http.ResponseWriter, r *http.Request, query func(context.Context) ([]T, error)) {
	rows, err := query(r.Context())
	if err != nil {
		respondQueryError(w, r, err)
		return
	}
	if rows == nil {
		rows = []T{}
	}
	respondJSON(w, http.StatusOK, rows)
}

func respondQueryError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, analytics.ErrSearchDisabled) {
		respondError(w, r, http.StatusServiceUnavailable, err.Error(), nil)
		return
	}
	if errors.Is(err, analytics.ErrPageOutOfRange) {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	respondError(w, r, http.StatusInternalServerError, msgInternalError, err)
}
