// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package services

import (
	"context"
	"time"
)

// PoolReporter matches *database.DB.
type PoolReporter interface {
	ReportPoolStats()
}

// PoolStatsService publishes durable store connection pool gauges on a
// fixed interval.
type PoolStatsService struct {
	db       PoolReporter
	interval time.Duration
}

// NewPoolStatsService creates the reporter. interval must be positive.
func NewPoolStatsService(db PoolReporter, interval time.Duration) *PoolStatsService {
	return &PoolStatsService{db: db, interval: interval}
}

// Serve implements suture.Service. The gauges are published once on start.
func (s *PoolStatsService) Serve(ctx context.Context) error {
	s.db.ReportPoolStats()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.db.ReportPoolStats()
		}
	}
}

// String implements fmt.Stringer for logging.
func (s *PoolStatsService) String() string {
	return "db-pool-stats"
}
