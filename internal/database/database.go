// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/metrics"
)

// Table names.
const (
	eventsTable     = "events"
	deadLetterTable = "dead_letter_events"
)

// DB is the durable event store. It speaks to Postgres through pgx's
// database/sql driver or to an embedded DuckDB file; the query text is
// shared and only the DDL differs per dialect.
type DB struct {
	conn    *sql.DB
	cfg     *config.DatabaseConfig
	dialect dialect
}

// New opens the store selected by cfg.Driver, verifies the connection and,
// when cfg.AutoMigrate is set, applies the schema.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	db := &DB{conn: conn, cfg: cfg, dialect: d}
	db.configureConnectionPool()

	pingCtx, cancel := context.WithTimeout(ctx, db.queryTimeout())
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to reach %s database: %w", cfg.Driver, err)
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			closeQuietly(conn)
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	logging.Info().
		Str("driver", cfg.Driver).
		Bool("auto_migrate", cfg.AutoMigrate).
		Msg("Durable store ready")

	return db, nil
}

// dataSourceName returns the driver DSN. For DuckDB the parent directory of
// the database file is created if needed; an empty path is in-memory.
func dataSourceName(cfg *config.DatabaseConfig) (string, error) {
	if cfg.Driver != driverDuckDB {
		return cfg.DSN, nil
	}
	if cfg.Path == "" || cfg.Path == ":memory:" {
		return "", nil
	}
	dir := filepath.Dir(cfg.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	return cfg.Path, nil
}

// Conn returns the underlying SQL connection pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver returns the configured driver name ("postgres" or "duckdb").
func (db *DB) Driver() string {
	return db.dialect.name
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close closes the connection pool. DuckDB files are checkpointed first so
// the next start does not replay the WAL.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if db.dialect.name == driverDuckDB {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}
	return db.conn.Close()
}

// ReportPoolStats publishes the pool's open connection count.
func (db *DB) ReportPoolStats() {
	metrics.DBOpenConnections.Set(float64(db.conn.Stats().OpenConnections))
}

func (db *DB) queryTimeout() time.Duration {
	if db.cfg.QueryTimeout > 0 {
		return db.cfg.QueryTimeout
	}
	return 5 * time.Second
}

// withTimeout bounds ctx by the query timeout unless ctx already has an
// earlier deadline.
func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := db.queryTimeout()
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// observe records a query's duration and outcome. Duplicate inserts are
// expected traffic and are not counted as errors.
func observe(operation, table string, start time.Time, err error) {
	if errors.Is(err, ErrDuplicateEvent) {
		err = nil
	}
	if isConnectionError(err) {
		logging.Warn().Err(err).Str("operation", operation).Msg("Durable store connection lost")
	}
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
}
