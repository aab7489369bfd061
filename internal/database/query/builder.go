// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

// Package query provides SQL query building utilities for the database package.
package query

import (
	"strconv"
	"strings"
	"time"
)

// WhereBuilder constructs SQL WHERE clauses with numbered placeholders
// ($1, $2, ...). Both pgx and DuckDB accept this placeholder style, so the
// same query text serves either driver.
//
// Example usage:
//
//	wb := query.NewWhereBuilder()
//	wb.AddEquals("event_type", "LOGIN")
//	wb.AddTimeRange("created_at", &from, &to)
//	whereClause, args := wb.BuildWithPrefix()
//	// WHERE event_type = $1 AND created_at >= $2 AND created_at <= $3
//	limit := wb.Placeholder(size) // $4
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates a new WhereBuilder instance.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// Placeholder binds value and returns its placeholder without adding a
// clause. Use it for LIMIT/OFFSET after the WHERE clause is complete.
func (wb *WhereBuilder) Placeholder(value interface{}) string {
	wb.args = append(wb.args, value)
	return "$" + strconv.Itoa(len(wb.args))
}

// AddEquals adds "column = $n".
func (wb *WhereBuilder) AddEquals(column string, value interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, column+" = "+wb.Placeholder(value))
	return wb
}

// AddTimeRange adds inclusive bounds on column. Nil bounds are skipped.
func (wb *WhereBuilder) AddTimeRange(column string, from, to *time.Time) *WhereBuilder {
	if from != nil {
		wb.clauses = append(wb.clauses, column+" >= "+wb.Placeholder(*from))
	}
	if to != nil {
		wb.clauses = append(wb.clauses, column+" <= "+wb.Placeholder(*to))
	}
	return wb
}

// AddNotNull adds "column IS NOT NULL".
func (wb *WhereBuilder) AddNotNull(column string) *WhereBuilder {
	wb.clauses = append(wb.clauses, column+" IS NOT NULL")
	return wb
}

// Build constructs the final WHERE clause and returns it with arguments.
// Clauses are joined with "AND". Returns "1=1" if no clauses were added.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", wb.args
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the WHERE clause with "WHERE " prefix, or an
// empty string when no clauses were added.
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	if wb.IsEmpty() {
		return "", wb.args
	}
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Args returns the bound arguments, including those bound by Placeholder.
func (wb *WhereBuilder) Args() []interface{} {
	return wb.args
}

// IsEmpty returns true if no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
