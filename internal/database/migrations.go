// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/pulse/internal/logging"
)

// Migration represents a versioned schema migration.
type Migration struct {
	Version     int       // Unique version number (monotonically increasing)
	Name        string    // Human-readable migration name
	Description string    // Description of what this migration does
	Statements  []string  // Executed in order; one statement each
	AppliedAt   time.Time // When the migration was applied (populated on query)
}

// schemaMigrationsTable creates the migration tracking table.
const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version     INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	applied_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// migrations returns all versioned migrations in order.
// Migrations are append-only: never modify or remove one that has shipped.
func (db *DB) migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Name:        "create_events",
			Description: "Durable event records with unique event_id",
			Statements:  db.dialect.eventsDDL,
		},
		{
			Version:     2,
			Name:        "create_dead_letter_events",
			Description: "Quarantined raw payloads with error context",
			Statements:  db.dialect.deadDDL,
		},
		{
			Version:     3,
			Name:        "index_events",
			Description: "Secondary indexes for type, user and time queries",
			Statements:  eventIndexes,
		},
		{
			Version:     4,
			Name:        "unbounded_event_text",
			Description: "Drop length limits on event text columns",
			Statements:  db.dialect.widenDDL,
		},
	}
}

// Migrate applies all migrations that have not been applied yet.
// It is safe to call on every start.
func (db *DB) Migrate(ctx context.Context) error {
	ctx, cancel := schemaContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range db.migrations() {
		if applied[m.Version] {
			continue
		}
		if err := db.apply(ctx, m); err != nil {
			return err
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().
			Int("applied", newMigrations).
			Str("driver", db.dialect.name).
			Msg("Applied database migrations")
	}
	return nil
}

// apply runs one migration and records it in a single transaction.
func (db *DB) apply(ctx context.Context, m Migration) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration v%d: %w", m.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, description) VALUES ($1, $2, $3)`,
		m.Version, m.Name, m.Description); err != nil {
		return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
	}
	return nil
}

func (db *DB) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// SchemaVersion returns the highest applied migration version.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// MigrationHistory returns all applied migrations in order.
func (db *DB) MigrationHistory(ctx context.Context) ([]Migration, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query migration history: %w", err)
	}
	defer rows.Close()

	var history []Migration
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		history = append(history, m)
	}
	return history, rows.Err()
}
