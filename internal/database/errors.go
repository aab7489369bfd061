// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateEvent is returned by InsertEvent when a row with the same
// event_id already exists.
var ErrDuplicateEvent = errors.New("duplicate event_id")

// ErrRejectedEvent is returned by InsertEvent when the store refused the
// row's contents, as opposed to failing to reach the store.
var ErrRejectedEvent = errors.New("event rejected by the durable store")

// pgUniqueViolation is the SQLSTATE of unique_violation.
const pgUniqueViolation = "23505"

// SQLSTATE classes for bad row contents: data_exception and
// integrity_constraint_violation.
const (
	pgClassDataException = "22"
	pgClassIntegrity     = "23"
)

// duckdbDataErrors are the DuckDB error prefixes for bad row contents.
var duckdbDataErrors = []string{
	"Conversion Error:",
	"Invalid Input Error:",
	"Out of Range Error:",
	"Constraint Error:",
}

// isUniqueViolation reports whether err is a uniqueness violation from
// either driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate key") ||
		strings.Contains(msg, "violates unique constraint") ||
		strings.Contains(msg, "violates primary key constraint")
}

// isDataError reports whether err means the row itself was unacceptable.
// Uniqueness violations are excluded; they are duplicates, not bad data.
func isDataError(err error) bool {
	if err == nil || isUniqueViolation(err) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, pgClassDataException) ||
			strings.HasPrefix(pgErr.Code, pgClassIntegrity)
	}
	msg := err.Error()
	for _, prefix := range duckdbDataErrors {
		if strings.Contains(msg, prefix) {
			return true
		}
	}
	return false
}
