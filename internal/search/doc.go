// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

// Package search mirrors events into an Elasticsearch index for
// exact-match lookups by type, user and region.
//
// Documents are keyed by eventId, so re-indexing a redelivered event
// overwrites the earlier copy. The index is created by EnsureIndex (run by
// "pulse migrate" and at startup) with keyword mappings for the lookup
// fields; payloads are stored without being indexed.
package search
