// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

// Package database is the durable event store.
//
// # Overview
//
// Two engines are supported behind database/sql:
//   - postgres: production, through github.com/jackc/pgx/v5/stdlib
//   - duckdb: embedded single-file store and unit tests, through
//     github.com/duckdb/duckdb-go/v2
//
// Query text is shared between the engines (numbered placeholders,
// ON CONFLICT, RETURNING). Only the DDL differs; see schema.go.
//
// # Files
//
//   - database.go: lifecycle (open, ping, close) and per-query timeouts
//   - database_connection.go: pool configuration and connection-loss detection
//   - schema.go: per-dialect DDL
//   - migrations.go: versioned, append-only migrations in schema_migrations
//   - events.go: event insert, idempotency lookup, paged queries, distributions
//   - deadletter.go: quarantine table
//   - errors.go: ErrDuplicateEvent and unique-violation detection
//
// # Idempotency
//
// events.event_id carries a UNIQUE constraint. InsertEvent uses
// ON CONFLICT (event_id) DO NOTHING and reports a suppressed insert as
// ErrDuplicateEvent. Rows without an event_id never conflict.
//
// # Metrics
//
// Every query is recorded in pulse_db_query_duration_seconds and, on
// failure, pulse_db_query_errors_total. Duplicate inserts are not errors.
package database
