// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/pulse/internal/validation"
)

// DateRangeRequest is the query of GET /events/date-range.
type DateRangeRequest struct {
	From string `json:"from" validate:"required,notblank"`
	To   string `json:"to" validate:"required,notblank"`
}

// dateRange is a validated, parsed DateRangeRequest.
type dateRange struct {
	from time.Time
	to   time.Time
}

// parseDateRange reads, validates and parses the from and to parameters.
func parseDateRange(r *http.Request) (dateRange, error) {
	q := r.URL.Query()
	req := DateRangeRequest{From: q.Get("from"), To: q.Get("to")}
	if verr := validation.ValidateStruct(&req); verr != nil {
		return dateRange{}, verr
	}

	from, err := parseDateTime(req.From)
	if err != nil {
		return dateRange{}, err
	}
	to, err := parseDateTime(req.To)
	if err != nil {
		return dateRange{}, err
	}
	if from.After(to) {
		return dateRange{}, errors.New("from must not be after to")
	}
	return dateRange{from: from, to: to}, nil
}
