// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/pulse/internal/models"
)

// InsertDeadLetter appends a quarantined payload and returns its id.
// A zero CreatedAt is stored as now.
func (db *DB) InsertDeadLetter(ctx context.Context, dl *models.DeadLetter) (id int64, err error) {
	defer func(start time.Time) { observe("insert", deadLetterTable, start, err) }(time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	createdAt := dl.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err = db.conn.QueryRowContext(ctx, `INSERT INTO dead_letter_events
	(event_id, raw_payload, error_message, retry_count, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`,
		nullString(dl.EventID),
		dl.RawPayload,
		dl.ErrorMessage,
		dl.RetryCount,
		createdAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert dead letter: %w", err)
	}
	dl.ID = id
	dl.CreatedAt = createdAt.UTC()
	return id, nil
}

// CountDeadLetters returns the number of quarantined payloads.
func (db *DB) CountDeadLetters(ctx context.Context) (n int64, err error) {
	defer func(start time.Time) { observe("count", deadLetterTable, start, err) }(time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letter_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count dead letters: %w", err)
	}
	return n, nil
}

// DeadLetters returns one page of quarantined payloads, newest first.
func (db *DB) DeadLetters(ctx context.Context, pr models.PageRequest) (page models.Page[models.DeadLetter], err error) {
	defer func(start time.Time) { observe("list", deadLetterTable, start, err) }(time.Now())

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var total int64
	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letter_events`).Scan(&total); err != nil {
		return page, fmt.Errorf("count dead letters: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT id, event_id, raw_payload, error_message, retry_count, created_at
FROM dead_letter_events
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`, pr.Size, pr.Offset())
	if err != nil {
		return page, fmt.Errorf("query dead letters: %w", err)
	}
	defer rows.Close()

	letters := make([]models.DeadLetter, 0, pr.Size)
	for rows.Next() {
		var dl models.DeadLetter
		var eventID, errorMsg sql.NullString
		if err := rows.Scan(&dl.ID, &eventID, &dl.RawPayload, &errorMsg, &dl.RetryCount, &dl.CreatedAt); err != nil {
			return page, fmt.Errorf("scan dead letter: %w", err)
		}
		dl.EventID = eventID.String
		dl.ErrorMessage = errorMsg.String
		dl.CreatedAt = dl.CreatedAt.UTC()
		letters = append(letters, dl)
	}
	if err = rows.Err(); err != nil {
		return page, fmt.Errorf("iterate dead letters: %w", err)
	}
	return models.NewPage(letters, pr.Page, pr.Size, total), nil
}
