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
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pulse/internal/database/query"
	"github.com/tomtom215/pulse/internal/models"
)

const eventColumns = `id, event_id, event_type, user_id, session_id,
	CAST(payload AS VARCHAR), source, region, created_at, processed_at`

// InsertEvent stores rec in its own transaction and returns the assigned id.
// A row with the same event_id yields ErrDuplicateEvent and leaves the
// table unchanged.
func (db *DB) InsertEvent(ctx context.Context, rec *models.EventRecord) (id int64, err error) {
	defer func(start time.Time) { observe("insert", eventsTable, start, err) }(time.Now())

	payload, err := encodePayload(rec.Payload)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt := fmt.Sprintf(`INSERT INTO events
	(event_id, event_type, user_id, session_id, payload, source, region, created_at, processed_at)
VALUES ($1, $2, $3, $4, CAST($5 AS %s), $6, $7, $8, $9)
ON CONFLICT (event_id) DO NOTHING
RETURNING id`, db.dialect.jsonType)

	err = tx.QueryRowContext(ctx, stmt,
		nullString(rec.EventID),
		rec.EventType,
		nullString(rec.UserID),
		nullString(rec.SessionID),
		payload,
		nullString(rec.Source),
		nullString(rec.Region),
		rec.CreatedAt.UTC(),
		rec.ProcessedAt.UTC(),
	).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows), isUniqueViolation(err):
		return 0, ErrDuplicateEvent
	case isDataError(err):
		return 0, fmt.Errorf("%w: %w", ErrRejectedEvent, err)
	case err != nil:
		return 0, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateEvent
		}
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	rec.ID = id
	return id, nil
}

// ExistsByEventID reports whether an event with eventID has been stored.
func (db *DB) ExistsByEventID(ctx context.Context, eventID string) (exists bool, err error) {
	defer func(start time.Time) { observe("exists", eventsTable, start, err) }(time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	err = db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE event_id = $1)`, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check event %s: %w", eventID, err)
	}
	return exists, nil
}

// CountEvents returns the number of stored events.
func (db *DB) CountEvents(ctx context.Context) (int64, error) {
	return db.count(ctx, "count", query.NewWhereBuilder())
}

// EventsByType returns one page of events of a type, newest first.
func (db *DB) EventsByType(ctx context.Context, eventType string, pr models.PageRequest) (models.Page[models.EventRecord], error) {
	return db.eventsPage(ctx, "by_type", query.NewWhereBuilder().AddEquals("event_type", eventType), pr)
}

// EventsByUser returns one page of a user's events, newest first.
func (db *DB) EventsByUser(ctx context.Context, userID string, pr models.PageRequest) (models.Page[models.EventRecord], error) {
	return db.eventsPage(ctx, "by_user", query.NewWhereBuilder().AddEquals("user_id", userID), pr)
}

// EventsBetween returns one page of events with from <= created_at <= to,
// newest first.
func (db *DB) EventsBetween(ctx context.Context, from, to time.Time, pr models.PageRequest) (models.Page[models.EventRecord], error) {
	from, to = from.UTC(), to.UTC()
	return db.eventsPage(ctx, "by_date_range", query.NewWhereBuilder().AddTimeRange("created_at", &from, &to), pr)
}

func (db *DB) count(ctx context.Context, operation string, wb *query.WhereBuilder) (n int64, err error) {
	defer func(start time.Time) { observe(operation, eventsTable, start, err) }(time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	where, args := wb.BuildWithPrefix()
	err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM events "+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func (db *DB) eventsPage(ctx context.Context, operation string, wb *query.WhereBuilder, pr models.PageRequest) (page models.Page[models.EventRecord], err error) {
	defer func(start time.Time) { observe(operation, eventsTable, start, err) }(time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	where, args := wb.BuildWithPrefix()
	var total int64
	if err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM events "+where, args...).Scan(&total); err != nil {
		return page, fmt.Errorf("count events: %w", err)
	}

	limit := wb.Placeholder(pr.Size)
	offset := wb.Placeholder(pr.Offset())
	stmt := fmt.Sprintf(`SELECT %s FROM events %s
ORDER BY created_at DESC, id DESC
LIMIT %s OFFSET %s`, eventColumns, where, limit, offset)

	rows, err := db.conn.QueryContext(ctx, stmt, wb.Args()...)
	if err != nil {
		return page, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := make([]models.EventRecord, 0, pr.Size)
	for rows.Next() {
		rec, err := scanEvent(rows)
		if err != nil {
			return page, err
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return page, fmt.Errorf("iterate events: %w", err)
	}
	return models.NewPage(records, pr.Page, pr.Size, total), nil
}

// EventTypeDistribution returns event counts per type, largest first.
func (db *DB) EventTypeDistribution(ctx context.Context) ([]models.EventTypeCount, error) {
	rows, err := db.distribution(ctx, "event_type")
	if err != nil {
		return nil, err
	}
	out := make([]models.EventTypeCount, len(rows))
	for i, r := range rows {
		out[i] = models.EventTypeCount{EventType: r.value, Count: r.count}
	}
	return out, nil
}

// RegionDistribution returns event counts per non-null region, largest first.
func (db *DB) RegionDistribution(ctx context.Context) ([]models.RegionCount, error) {
	rows, err := db.distribution(ctx, "region")
	if err != nil {
		return nil, err
	}
	out := make([]models.RegionCount, len(rows))
	for i, r := range rows {
		out[i] = models.RegionCount{Region: r.value, Count: r.count}
	}
	return out, nil
}

// SourceDistribution returns event counts per non-null source, largest first.
func (db *DB) SourceDistribution(ctx context.Context) ([]models.SourceCount, error) {
	rows, err := db.distribution(ctx, "source")
	if err != nil {
		return nil, err
	}
	out := make([]models.SourceCount, len(rows))
	for i, r := range rows {
		out[i] = models.SourceCount{Source: r.value, Count: r.count}
	}
	return out, nil
}

type groupCount struct {
	value string
	count int64
}

// distribution groups events by column. column is one of a fixed set of
// identifiers, never user input.
func (db *DB) distribution(ctx context.Context, column string) (out []groupCount, err error) {
	defer func(start time.Time) { observe("distribution_"+column, eventsTable, start, err) }(time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	where, args := query.NewWhereBuilder().AddNotNull(column).BuildWithPrefix()
	stmt := fmt.Sprintf(`SELECT %[1]s, COUNT(*) AS n FROM events
%[2]s
GROUP BY %[1]s
ORDER BY n DESC, %[1]s`, column, where)

	rows, err := db.conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s distribution: %w", column, err)
	}
	defer rows.Close()

	out = []groupCount{}
	for rows.Next() {
		var g groupCount
		if err := rows.Scan(&g.value, &g.count); err != nil {
			return nil, fmt.Errorf("scan %s distribution: %w", column, err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (models.EventRecord, error) {
	var rec models.EventRecord
	var eventID, userID, sessionID, source, region, payload sql.NullString
	err := row.Scan(&rec.ID, &eventID, &rec.EventType, &userID, &sessionID,
		&payload, &source, &region, &rec.CreatedAt, &rec.ProcessedAt)
	if err != nil {
		return rec, fmt.Errorf("scan event: %w", err)
	}
	rec.EventID = eventID.String
	rec.UserID = userID.String
	rec.SessionID = sessionID.String
	rec.Source = source.String
	rec.Region = region.String
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.ProcessedAt = rec.ProcessedAt.UTC()
	if payload.Valid {
		p, err := models.DecodePayload([]byte(payload.String))
		if err != nil {
			return rec, fmt.Errorf("decode payload of event %d: %w", rec.ID, err)
		}
		rec.Payload = p
	}
	return rec, nil
}

// encodePayload renders payload as JSON text; a nil payload is SQL NULL.
func encodePayload(payload map[string]interface{}) (interface{}, error) {
	if payload == nil {
		return nil, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
