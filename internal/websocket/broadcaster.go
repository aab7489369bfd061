// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package websocket

import (
	"context"
	"time"

	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/metrics"
	"github.com/tomtom215/pulse/internal/models"
)

// DefaultBroadcastInterval is used when the configured interval is not positive.
const DefaultBroadcastInterval = 5 * time.Second

// DashboardSource produces the summary pushed to subscribers.
type DashboardSource interface {
	Dashboard(ctx context.Context) (*models.DashboardSummary, error)
}

// DashboardBroadcaster periodically reads the dashboard summary and pushes
// it through the hub. Ticks with no connected client skip the read.
type DashboardBroadcaster struct {
	hub      *Hub
	source   DashboardSource
	interval time.Duration
}

// NewDashboardBroadcaster creates a broadcaster pushing every interval.
func NewDashboardBroadcaster(hub *Hub, source DashboardSource, interval time.Duration) *DashboardBroadcaster {
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	return &DashboardBroadcaster{hub: hub, source: source, interval: interval}
}

// Serve implements suture.Service.
func (b *DashboardBroadcaster) Serve(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.Tick(ctx)
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (b *DashboardBroadcaster) String() string {
	return "dashboard-broadcaster"
}

// Tick pushes one summary. Read failures are logged and counted; the next
// tick tries again.
func (b *DashboardBroadcaster) Tick(ctx context.Context) {
	if b.hub.GetClientCount() == 0 {
		return
	}

	summary, err := b.source.Dashboard(ctx)
	if err != nil {
		metrics.RecordDashboardBroadcast(err)
		logging.Warn().Err(err).Msg("Dashboard broadcast skipped")
		return
	}
	if !b.hub.BroadcastDashboard(summary) {
		metrics.RecordDashboardBroadcast(errBroadcastDropped)
		return
	}
	metrics.RecordDashboardBroadcast(nil)
}
