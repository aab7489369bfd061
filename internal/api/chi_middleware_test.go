// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/pulse/internal/config"
)

func TestChiMiddlewareConfigFrom(t *testing.T) {
	sec := &config.SecurityConfig{
		CORSOrigins:     []string{"https://dash.example.com"},
		RateLimitReqs:   5,
		RateLimitWindow: 10 * time.Second,
	}
	cfg := ChiMiddlewareConfigFrom(sec)

	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "https://dash.example.com" {
		t.Errorf("origins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRequests != 5 || cfg.RateLimitWindow != 10*time.Second {
		t.Errorf("rate limit = %d/%v, want 5/10s", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	defaults := ChiMiddlewareConfigFrom(&config.SecurityConfig{})
	if defaults.RateLimitRequests != 100 || defaults.RateLimitWindow != time.Minute {
		t.Errorf("zero values should keep defaults, got %d/%v", defaults.RateLimitRequests, defaults.RateLimitWindow)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitDisabled = false
	cfg.Security.RateLimitReqs = 2
	env := newTestEnv(t, cfg)

	for i := 0; i < 2; i++ {
		if rec := env.do(http.MethodGet, "/api/v1/analytics/distribution/sources", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
	rec := env.do(http.MethodGet, "/api/v1/analytics/distribution/sources", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "rate limit exceeded" {
		t.Errorf("error = %q", msg)
	}

	// health has its own, permissive limiter
	if rec := env.do(http.MethodGet, "/api/v1/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitReqs = 1
	env := newTestEnv(t, cfg)

	for i := 0; i < 5; i++ {
		if rec := env.do(http.MethodGet, "/api/v1/analytics/rate", ""); rec.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d limited while rate limiting is disabled", i+1)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.Security.CORSOrigins = []string{"https://dash.example.com"}
	env := newTestEnv(t, cfg)

	tests := []struct {
		origin    string
		wantAllow string
	}{
		{"https://dash.example.com", "https://dash.example.com"},
		{"https://evil.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/events", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", "Content-Type")
			rec := httptest.NewRecorder()
			env.server.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if env.publisher.count() != 0 {
				t.Error("preflight reached the publish handler")
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/api/v1/health/live", "")
	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set on a plain HTTP request")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(http.MethodGet, "/api/v1/health/live", "")

	rec := env.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pulse_api_requests_total") {
		t.Error("exposition is missing pulse_api_requests_total")
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, nil)

	if rec := env.do(http.MethodGet, "/api/v1/nothing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if rec := env.do(http.MethodDelete, "/api/v1/analytics/dashboard", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d, want 405", rec.Code)
	}
}
