// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package api

import (
	"fmt"
	"net/http"

	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/models"
)

// Batch size bounds of POST /api/v1/events/batch.
const (
	MinBatchSize = 1
	MaxBatchSize = 100
)

// Write API messages.
const (
	msgEventQueued = "Event queued for processing"
	msgBatchQueued = "Batch queued for processing"
	msgBatchSize   = "Batch size must be between 1 and 100"
)

// PublishEvent handles POST /api/v1/events. The event is validated,
// defaulted and handed to the producer; 202 means the publish was
// dispatched, not that the broker acknowledged it.
// @Summary Publish an event
// @Description Validates the event, fills eventId and timestamp when absent and hands it to the producer
// @Tags Events
// @Accept json
// @Produce json
// @Param event body models.Event true "Event"
// @Success 202 {object} models.EventAccepted
// @Failure 400 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/events [post]
func (h *Handler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	var ev models.Event
	if err := decodeJSONBody(w, r, h.maxBodyBytes, &ev); err != nil {
		respondError(w, r, bodyErrorStatus(err), err.Error(), nil)
		return
	}
	if err := h.publisher.Prepare(&ev); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.publisher.Publish(r.Context(), &ev); err != nil {
		respondError(w, r, http.StatusInternalServerError, msgInternalError, err)
		return
	}

	respondJSON(w, http.StatusAccepted, models.EventAccepted{
		Status:  models.StatusAccepted,
		EventID: ev.EventID,
		Message: msgEventQueued,
	})
}

// PublishBatch handles POST /api/v1/events/batch. Every event is validated
// before any is published, so a rejected batch publishes nothing.
// @Summary Publish a batch
// @Description Validates 1 to 100 events and publishes them; a rejected batch publishes nothing
// @Tags Events
// @Accept json
// @Produce json
// @Param events body []models.Event true "Events"
// @Success 202 {object} models.BatchAccepted
// @Failure 400 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/events/batch [post]
func (h *Handler) PublishBatch(w http.ResponseWriter, r *http.Request) {
	var events []models.Event
	if err := decodeJSONBody(w, r, h.maxBodyBytes, &events); err != nil {
		respondError(w, r, bodyErrorStatus(err), err.Error(), nil)
		return
	}
	if len(events) < MinBatchSize || len(events) > MaxBatchSize {
		respondError(w, r, http.StatusBadRequest, msgBatchSize, nil)
		return
	}

	for i := range events {
		if err := h.publisher.Prepare(&events[i]); err != nil {
			respondError(w, r, http.StatusBadRequest, fmt.Sprintf("event %d: %s", i, err.Error()), nil)
			return
		}
	}
	for i := range events {
		if err := h.publisher.Publish(r.Context(), &events[i]); err != nil {
			respondError(w, r, http.StatusInternalServerError, msgInternalError, err)
			return
		}
	}

	logging.Ctx(r.Context()).Debug().Int("count", len(events)).Msg("Batch dispatched")
	respondJSON(w, http.StatusAccepted, models.BatchAccepted{
		Status:  models.StatusAccepted,
		Count:   len(events),
		Message: msgBatchQueued,
	})
}

// Simulate handles POST /api/v1/events/simulate?count=N.
// @Summary Simulate traffic
// @Description Publishes count synthetic events
// @Tags Events
// @Produce json
// @Param count query int false "Number of events, clamped to the configured range"
// @Success 202 {object} models.SimulationAccepted
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/events/simulate [post]
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	requested, err := intParam(r, "count", 0)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	count := h.simulator.ClampCount(requested)

	result, err := h.simulator.Run(r.Context(), count)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError,
			fmt.Sprintf("simulation stopped after %d events", result.Simulated), err)
		return
	}

	respondJSON(w, http.StatusAccepted, models.SimulationAccepted{
		Status:       models.StatusAccepted,
		Simulated:    result.Simulated,
		FirstEventID: result.FirstEventID,
	})
}
