// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

/*
Package eventprocessor implements the consumer-side processing engine.

A RecordHandler takes one raw log record and drives it to a terminal state:

	raw bytes
	    -> models.DecodeEvent + validation     (failure: quarantine)
	    -> Processor.Process
	         gate     KV processed:<id>, then durable ExistsByEventID
	         persist  durable store, behind the "durable" breaker
	         index    search index, behind the "search" breaker
	         count    TOTAL, type, region and per-minute rate counters
	         mark     processed:<id> with a 24h TTL
	    -> Done | Dropped | Quarantined

The gate is the only idempotency mechanism; the unique constraint on
event_id backs it up when the KV marker is missing or the durable check is
unavailable. Persist and index are best effort: an open breaker skips the
step and a failed call is logged, and in both cases processing continues.
A failure of the counter store is returned and the record is quarantined.

Events without an eventId skip the gate and the mark step, so they are
stored once per delivery.

Circuit Breakers:

Each fan-out sink has its own gobreaker instance (see Breaker). State,
transitions and rejections are exported as pulse_circuit_breaker_* metrics.

Quarantine:

Quarantiner writes {eventId?, rawPayload, errorMessage, retryCount=0,
createdAt} to the dead-letter table. It never fails: a write error is
logged and counted in pulse_dlq_save_failures_total, and the record is
acknowledged anyway.
*/
package eventprocessor
