// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package models

import "time"

// EventRecord is an event as stored in the durable store.
type EventRecord struct {
	ID          int64                  `json:"id"`
	EventID     string                 `json:"eventId,omitempty"`
	EventType   string                 `json:"eventType"`
	UserID      string                 `json:"userId,omitempty"`
	SessionID   string                 `json:"sessionId,omitempty"`
	Payload     map[string]interface{} `json:"payload"`
	Source      string                 `json:"source,omitempty"`
	Region      string                 `json:"region,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	ProcessedAt time.Time              `json:"processedAt"`
}

// NewEventRecord builds the durable record for a decoded event.
// CreatedAt is the client-declared instant; ProcessedAt is the time of processing.
func NewEventRecord(ev *DecodedEvent, processedAt time.Time) *EventRecord {
	return &EventRecord{
		EventID:     ev.EventID,
		EventType:   ev.EventType,
		UserID:      ev.UserID,
		SessionID:   ev.SessionID,
		Payload:     ev.Payload,
		Source:      ev.Source,
		Region:      ev.Region,
		CreatedAt:   ev.Timestamp,
		ProcessedAt: processedAt.UTC(),
	}
}

// EventDocument is the search-index mirror of a durable record.
// EventID is the document key.
type EventDocument struct {
	EventID   string                 `json:"eventId"`
	EventType string                 `json:"eventType"`
	UserID    string                 `json:"userId,omitempty"`
	SessionID string                 `json:"sessionId,omitempty"`
	Payload   map[string]interface{} `json:"payload"`
	Source    string                 `json:"source,omitempty"`
	Region    string                 `json:"region,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEventDocument builds the search document for a decoded event.
func NewEventDocument(ev *DecodedEvent) *EventDocument {
	return &EventDocument{
		EventID:   ev.EventID,
		EventType: ev.EventType,
		UserID:    ev.UserID,
		SessionID: ev.SessionID,
		Payload:   ev.Payload,
		Source:    ev.Source,
		Region:    ev.Region,
		Timestamp: ev.Timestamp,
	}
}

// DeadLetter is a quarantined raw payload with error context.
type DeadLetter struct {
	ID           int64     `json:"id"`
	EventID      string    `json:"eventId,omitempty"`
	RawPayload   string    `json:"rawPayload"`
	ErrorMessage string    `json:"errorMessage"`
	RetryCount   int       `json:"retryCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Page is a page of results in the read API.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// NewPage assembles a page, computing the page count from total and size.
func NewPage[T any](content []T, page, size int, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

// PageRequest is a zero-based page request.
type PageRequest struct {
	Page int
	Size int
}

// Offset returns the row offset of the page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// EventTypeCount is one row of the event-type distribution.
type EventTypeCount struct {
	EventType string `json:"eventType"`
	Count     int64  `json:"count"`
}

// RegionCount is one row of the region distribution.
type RegionCount struct {
	Region string `json:"region"`
	Count  int64  `json:"count"`
}

// SourceCount is one row of the source distribution.
type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// DashboardSummary is the low-latency summary assembled from counters.
type DashboardSummary struct {
	TotalEvents    int64            `json:"totalEvents"`
	ByEventType    map[string]int64 `json:"byEventType"`
	ByRegion       map[string]int64 `json:"byRegion"`
	EventsLast5Min int64            `json:"eventsLast5Min"`
	Timestamp      string           `json:"timestamp"`
}

// RateSummary is the rolling-window event rate.
type RateSummary struct {
	Last1Min  int64 `json:"last1Min"`
	Last5Min  int64 `json:"last5Min"`
	Last15Min int64 `json:"last15Min"`
	Last60Min int64 `json:"last60Min"`
}
