// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/tomtom215/pulse/internal/models"
)

func TestPublishEvent(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/v1/events",
		`{"eventType":"PURCHASE","userId":"u1","payload":{"amount":10},"region":"US"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody[models.EventAccepted](t, rec)
	if body.Status != "accepted" {
		t.Errorf("status field = %q, want accepted", body.Status)
	}
	if body.EventID == "" {
		t.Error("eventId is empty")
	}
	if body.Message != "Event queued for processing" {
		t.Errorf("message = %q", body.Message)
	}
	if env.publisher.count() != 1 {
		t.Fatalf("published %d events, want 1", env.publisher.count())
	}
	if got := env.publisher.published[0].EventID; got != body.EventID {
		t.Errorf("published eventId %q != response eventId %q", got, body.EventID)
	}
}

func TestPublishEventKeepsClientID(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/v1/events",
		`{"eventId":"client-1","eventType":"LOGIN","payload":{}}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if got := decodeBody[models.EventAccepted](t, rec).EventID; got != "client-1" {
		t.Errorf("eventId = %q, want client-1", got)
	}
}

func TestPublishEventRejected(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing event type", `{"payload":{}}`, "eventType is required"},
		{"blank event type", `{"eventType":"  ","payload":{}}`, "eventType must not be blank"},
		{"missing payload", `{"eventType":"CLICK"}`, "payload is required"},
		{"invalid json", `{"eventType":`, "request body is not valid JSON"},
		{"empty body", ``, "request body is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(http.MethodPost, "/api/v1/events", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
			}
			if msg := errorMessage(t, rec); !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", msg, tt.wantMsg)
			}
			if env.publisher.count() != 0 {
				t.Error("rejected event was published")
			}
		})
	}
}

func TestPublishEventBodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.API.MaxBodyBytes = 64
	env := newTestEnv(t, cfg)

	body := `{"eventType":"CLICK","payload":{"blob":"` + strings.Repeat("x", 128) + `"}}`
	rec := env.do(http.MethodPost, "/api/v1/events", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestPublishEventProducerFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.publisher.err = errors.New("broker unreachable")

	rec := env.do(http.MethodPost, "/api/v1/events", `{"eventType":"CLICK","payload":{}}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if msg := errorMessage(t, rec); strings.Contains(msg, "broker") {
		t.Errorf("internal error leaked to client: %q", msg)
	}
}

func TestPublishBatchSizeBoundaries(t *testing.T) {
	tests := []struct {
		size       int
		wantStatus int
	}{
		{0, http.StatusBadRequest},
		{1, http.StatusAccepted},
		{100, http.StatusAccepted},
		{101, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("size_%d", tt.size), func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(http.MethodPost, "/api/v1/events/batch", eventsJSON(tt.size))
			if rec.Code != tt.wantStatus {
				t.Fatalf("size %d: status = %d, want %d", tt.size, rec.Code, tt.wantStatus)
			}

			if tt.wantStatus != http.StatusAccepted {
				if msg := errorMessage(t, rec); msg != "Batch size must be between 1 and 100" {
					t.Errorf("error = %q", msg)
				}
				if env.publisher.count() != 0 {
					t.Errorf("size %d: published %d events, want 0", tt.size, env.publisher.count())
				}
				return
			}

			body := decodeBody[models.BatchAccepted](t, rec)
			if body.Count != tt.size || body.Status != "accepted" || body.Message != "Batch queued for processing" {
				t.Errorf("body = %+v", body)
			}
			if env.publisher.count() != tt.size {
				t.Errorf("published %d events, want %d", env.publisher.count(), tt.size)
			}
		})
	}
}

func TestPublishBatchRejectsWholeBatch(t *testing.T) {
	env := newTestEnv(t, nil)

	body := `[{"eventType":"CLICK","payload":{}},{"eventType":"","payload":{}},{"eventType":"LOGIN","payload":{}}]`
	rec := env.do(http.MethodPost, "/api/v1/events/batch", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := errorMessage(t, rec); !strings.HasPrefix(msg, "event 1: ") {
		t.Errorf("error = %q, want it to name event 1", msg)
	}
	if env.publisher.count() != 0 {
		t.Errorf("published %d events from a rejected batch", env.publisher.count())
	}
}

func TestPublishBatchNotArray(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/v1/events/batch", `{"eventType":"CLICK","payload":{}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSimulate(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantRun int
	}{
		{"default count", "", 100},
		{"explicit count", "?count=25", 25},
		{"capped", "?count=10000", 500},
		{"zero uses default", "?count=0", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(http.MethodPost, "/api/v1/events/simulate"+tt.query, "")
			if rec.Code != http.StatusAccepted {
				t.Fatalf("status = %d, want 202; body %s", rec.Code, rec.Body.String())
			}
			if env.simulator.lastRun != tt.wantRun {
				t.Errorf("ran %d events, want %d", env.simulator.lastRun, tt.wantRun)
			}
			body := decodeBody[models.SimulationAccepted](t, rec)
			if body.Simulated != tt.wantRun || body.FirstEventID != "sim-1" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestSimulateMalformedCount(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/v1/events/simulate?count=lots", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "count must be an integer" {
		t.Errorf("error = %q", msg)
	}
}

func TestSimulateStoppedEarly(t *testing.T) {
	env := newTestEnv(t, nil)
	env.simulator.failAt = 4

	rec := env.do(http.MethodPost, "/api/v1/events/simulate?count=10", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "simulation stopped after 3 events" {
		t.Errorf("error = %q", msg)
	}
}

func TestWriteRoutesUnmountedWithoutPublisher(t *testing.T) {
	cfg := testConfig()
	h := NewHandler(cfg, Dependencies{Analytics: &fakeAnalytics{}})
	srv := NewRouter(cfg, h).SetupChi()

	for _, target := range []string{"/api/v1/events", "/api/v1/events/batch", "/api/v1/events/simulate"} {
		rec := newRecorderFor(srv, http.MethodPost, target)
		if rec.Code != http.StatusNotFound {
			t.Errorf("POST %s = %d, want 404", target, rec.Code)
		}
	}
}
