// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

// Package consumer runs the Kafka consumer loops: the event pipeline on
// the user and system topics, and the DLQ monitor on the dead-letter topic.
//
// Offsets are committed manually. A record is marked only after its handler
// returns, marked offsets are committed at the end of each poll batch, and
// the group may rebalance only after that commit. Records within one
// partition are handled in offset order by a single worker.
package consumer
