// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package models

import (
	"testing"
	"time"
)

func TestNewPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		total     int64
		size      int
		wantPages int
	}{
		{"empty", 0, 20, 0},
		{"exact", 40, 20, 2},
		{"remainder", 41, 20, 3},
		{"single", 1, 20, 1},
		{"zero size", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewPage[EventRecord](nil, 0, tt.size, tt.total)
			if p.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", p.TotalPages, tt.wantPages)
			}
			if p.Content == nil {
				t.Error("expected non-nil content slice")
			}
		})
	}
}

func TestPageRequestOffset(t *testing.T) {
	t.Parallel()

	if got := (PageRequest{Page: 3, Size: 20}).Offset(); got != 60 {
		t.Errorf("Offset = %d, want 60", got)
	}
}

func TestNewEventRecord(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	processed := time.Date(2024, 1, 2, 3, 5, 0, 0, time.FixedZone("IST", 19800))
	ev := &DecodedEvent{EventID: "e-1", EventType: "PAGE_VIEW", Region: "US", Timestamp: created}

	rec := NewEventRecord(ev, processed)
	if !rec.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want event timestamp", rec.CreatedAt)
	}
	if rec.ProcessedAt.Location() != time.UTC || !rec.ProcessedAt.Equal(processed) {
		t.Errorf("ProcessedAt = %v, want %v in UTC", rec.ProcessedAt, processed)
	}

	doc := NewEventDocument(ev)
	if doc.EventID != "e-1" || !doc.Timestamp.Equal(created) {
		t.Errorf("unexpected document %+v", doc)
	}
}
