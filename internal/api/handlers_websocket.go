// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/pulse/internal/logging"
	ws "github.com/tomtom215/pulse/internal/websocket"
)

// WebSocket handles GET /api/v1/ws, subscribing the client to live
// dashboard updates. The current summary is queued right after
// registration so a new dashboard does not wait a full interval.
// @Summary Live dashboard
// @Description Upgrades to a WebSocket that receives dashboard summaries
// @Tags Realtime
// @Success 101 {string} string "Switching Protocols"
// @Failure 403 {string} string "Origin not allowed"
// @Failure 503 {object} models.ErrorResponse
// @Router /api/v1/ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, r, http.StatusServiceUnavailable, "websocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	select {
	case h.wsHub.Register <- client:
	case <-h.wsHub.Done():
		_ = conn.Close()
		return
	}
	client.Start()

	if summary, err := h.analytics.Dashboard(r.Context()); err == nil && summary != nil {
		h.wsHub.BroadcastDashboard(summary)
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates websocket origins against the CORS list.
// Browsers always send Origin, so a missing one is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
