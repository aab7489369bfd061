// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package query

import (
	"testing"
	"time"
)

func TestWhereBuilder_Empty(t *testing.T) {
	wb := NewWhereBuilder()

	if !wb.IsEmpty() {
		t.Error("Expected new builder to be empty")
	}

	whereClause, args := wb.Build()
	if whereClause != "1=1" {
		t.Errorf("Expected '1=1' for empty builder, got %q", whereClause)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}

	if got, _ := NewWhereBuilder().BuildWithPrefix(); got != "" {
		t.Errorf("empty BuildWithPrefix() = %q, want no WHERE", got)
	}
}

func TestWhereBuilder_Numbering(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)

	wb := NewWhereBuilder()
	wb.AddEquals("event_type", "LOGIN").AddTimeRange("created_at", &from, &to)

	whereClause, args := wb.Build()
	want := "event_type = $1 AND created_at >= $2 AND created_at <= $3"
	if whereClause != want {
		t.Errorf("Build() = %q, want %q", whereClause, want)
	}
	if len(args) != 3 {
		t.Fatalf("Expected 3 args, got %d", len(args))
	}

	if got := wb.Placeholder(20); got != "$4" {
		t.Errorf("Placeholder() = %q, want $4", got)
	}
	if got := wb.Placeholder(40); got != "$5" {
		t.Errorf("Placeholder() = %q, want $5", got)
	}
	if len(wb.Args()) != 5 {
		t.Errorf("Args() has %d values, want 5", len(wb.Args()))
	}
	if wb.IsEmpty() {
		t.Error("IsEmpty() = true after adding clauses")
	}
}

func TestWhereBuilder_AddTimeRange_NilBounds(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		from *time.Time
		to   *time.Time
		want string
	}{
		{"both nil", nil, nil, "1=1"},
		{"from only", &from, nil, "created_at >= $1"},
		{"to only", nil, &from, "created_at <= $1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder().AddTimeRange("created_at", tt.from, tt.to)
			if got, _ := wb.Build(); got != tt.want {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWhereBuilder_BuildWithPrefix(t *testing.T) {
	wb := NewWhereBuilder().AddNotNull("region")
	got, args := wb.BuildWithPrefix()
	if got != "WHERE region IS NOT NULL" {
		t.Errorf("BuildWithPrefix() = %q", got)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}

	if got, _ := NewWhereBuilder().BuildWithPrefix(); got != "" {
		t.Errorf("empty BuildWithPrefix() = %q, want no WHERE", got)
	}
}
