// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

/*
Package kv holds the counter and idempotency-marker store.

Three backends implement Store:

  - RedisStore: the shared production store (go-redis)
  - BadgerStore: embedded, persistent, single node (BadgerDB)
  - MemoryStore: in-process, for tests and local runs

Open selects one from configuration and wraps it with Instrument, which
bounds each call with the configured operation timeout and records
pulse_kv_operations_total.

Key layout:

	count:event:TOTAL        lifetime total
	count:event:<type>       lifetime count per event type
	count:region:<region>    lifetime count per region
	rate:<minute bucket>     events in one minute, expires after ~10m
	processed:<eventId>      idempotency marker, expires after 24h
*/
package kv
