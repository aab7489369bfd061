// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package models

// Response bodies of the HTTP API. The read API returns bare objects and
// pages; failures on either API are reported as ErrorResponse.

// ErrorResponse is the body of every 4xx/5xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Status values of write API responses.
const StatusAccepted = "accepted"

// EventAccepted is the 202 body for a single published event.
type EventAccepted struct {
	Status  string `json:"status"`
	EventID string `json:"eventId"`
	Message string `json:"message"`
}

// BatchAccepted is the 202 body for a published batch.
type BatchAccepted struct {
	Status  string `json:"status"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// SimulationAccepted is the 202 body for a simulation run.
type SimulationAccepted struct {
	Status       string `json:"status"`
	Simulated    int    `json:"simulated"`
	FirstEventID string `json:"firstEventId"`
}

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status   string                `json:"status"`
	Sinks    map[string]SinkHealth `json:"sinks,omitempty"`
	Breakers map[string]string     `json:"breakers,omitempty"`
}

// SinkHealth is the readiness of a single backing store.
type SinkHealth struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}
