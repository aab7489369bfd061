// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package database

import (
	"context"
	"fmt"
	"time"
)

// Supported drivers.
const (
	driverPostgres = "postgres"
	driverDuckDB   = "duckdb"
)

// dialect holds the per-driver differences. Everything else (placeholders,
// ON CONFLICT, RETURNING) is common to both engines.
type dialect struct {
	name       string
	driverName string // database/sql driver
	jsonType   string
	eventsDDL  []string
	deadDDL    []string
	widenDDL   []string
}

var postgresDialect = dialect{
	name:       driverPostgres,
	driverName: "pgx",
	jsonType:   "JSONB",
	eventsDDL: []string{`
CREATE TABLE IF NOT EXISTS events (
	id           BIGSERIAL PRIMARY KEY,
	event_id     TEXT UNIQUE,
	event_type   TEXT NOT NULL,
	user_id      TEXT,
	session_id   TEXT,
	payload      JSONB,
	source       TEXT,
	region       TEXT,
	created_at   TIMESTAMPTZ NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL
)`},
	deadDDL: []string{`
CREATE TABLE IF NOT EXISTS dead_letter_events (
	id            BIGSERIAL PRIMARY KEY,
	event_id      TEXT,
	raw_payload   TEXT NOT NULL,
	error_message TEXT,
	retry_count   INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`},
	// Databases created before the columns were TEXT still carry length
	// limits; on a fresh schema these are no-ops.
	widenDDL: []string{
		`ALTER TABLE events
	ALTER COLUMN event_id TYPE TEXT,
	ALTER COLUMN event_type TYPE TEXT,
	ALTER COLUMN user_id TYPE TEXT,
	ALTER COLUMN session_id TYPE TEXT,
	ALTER COLUMN source TYPE TEXT,
	ALTER COLUMN region TYPE TEXT`,
		`ALTER TABLE dead_letter_events ALTER COLUMN event_id TYPE TEXT`,
	},
}

var duckdbDialect = dialect{
	name:       driverDuckDB,
	driverName: "duckdb",
	jsonType:   "JSON",
	eventsDDL: []string{
		`CREATE SEQUENCE IF NOT EXISTS events_id_seq START 1`,
		`
CREATE TABLE IF NOT EXISTS events (
	id           BIGINT PRIMARY KEY DEFAULT nextval('events_id_seq'),
	event_id     VARCHAR UNIQUE,
	event_type   VARCHAR NOT NULL,
	user_id      VARCHAR,
	session_id   VARCHAR,
	payload      JSON,
	source       VARCHAR,
	region       VARCHAR,
	created_at   TIMESTAMPTZ NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL
)`},
	deadDDL: []string{
		`CREATE SEQUENCE IF NOT EXISTS dead_letter_events_id_seq START 1`,
		`
CREATE TABLE IF NOT EXISTS dead_letter_events (
	id            BIGINT PRIMARY KEY DEFAULT nextval('dead_letter_events_id_seq'),
	event_id      VARCHAR,
	raw_payload   VARCHAR NOT NULL,
	error_message VARCHAR,
	retry_count   INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`},
}

// eventIndexes are the secondary indexes of the events table. The unique
// index on event_id comes from the column constraint.
var eventIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events (event_type)`,
	`CREATE INDEX IF NOT EXISTS idx_events_user_id ON events (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events (created_at)`,
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case driverPostgres:
		return postgresDialect, nil
	case driverDuckDB:
		return duckdbDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// schemaContext returns a context for schema operations.
func schemaContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 60*time.Second)
}
