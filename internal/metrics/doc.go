// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

/*
Package metrics defines the Prometheus instrumentation of Pulse.

Every metric is registered with promauto on the default registry and is
exported by the API server at /metrics:

	curl http://localhost:8080/metrics

# Pipeline

  - pulse_events_processed_total{outcome}: done, dropped, quarantined
  - pulse_events_duplicate_total{tier}: kv, durable, constraint
  - pulse_pipeline_step_duration_seconds{step}: gate, persist, index, count, mark
  - pulse_pipeline_step_skipped_total{step}: steps skipped by an open breaker
  - pulse_dlq_saved_total{source}, pulse_dlq_save_failures_total{source}

A failed dead-letter write never halts the consumer; the failure is only
visible through pulse_dlq_save_failures_total and the error log.

# Consumer

  - pulse_consumer_records_polled_total{group,topic}
  - pulse_consumer_batch_size{group}
  - pulse_consumer_commits_total{group,result}

# Sinks

  - pulse_db_query_duration_seconds{operation,table}
  - pulse_search_requests_total{operation,result}
  - pulse_kv_operations_total{backend,operation,result}
  - pulse_circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open

# HTTP

  - pulse_api_requests_total{method,endpoint,status_code}
  - pulse_api_request_duration_seconds{method,endpoint}
  - pulse_events_published_total{topic,result}
  - pulse_websocket_connections
*/
package metrics
