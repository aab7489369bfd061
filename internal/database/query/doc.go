// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

/*
Package query builds parameterized WHERE clauses for the event queries.

Placeholders are numbered ($1, $2, ...) in the order values are bound, so
a builder must be used for exactly one statement. Values bound through
Placeholder after Build (LIMIT, OFFSET) continue the numbering.
*/
package query
