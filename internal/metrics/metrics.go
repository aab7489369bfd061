// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
)

var (
	// Consumer Metrics
	ConsumerRecordsPolled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_consumer_records_polled_total",
			Help: "Total number of records polled from the log",
		},
		[]string{"group", "topic"},
	)

	ConsumerPollErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_consumer_poll_errors_total",
			Help: "Total number of fetch errors reported by the log client",
		},
		[]string{"group"},
	)

	ConsumerBatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_consumer_batch_size",
			Help:    "Number of records per poll batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"group"},
	)

	ConsumerCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_consumer_commits_total",
			Help: "Total number of offset commits",
		},
		[]string{"group", "result"},
	)

	ConsumerDrainTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_consumer_drain_timeouts_total",
			Help: "Shutdowns that abandoned in-flight records after the drain deadline",
		},
		[]string{"group"},
	)

	// Pipeline Metrics
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_events_processed_total",
			Help: "Total number of events that finished the pipeline",
		},
		[]string{"outcome"}, // done, dropped, quarantined
	)

	EventsDuplicate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_events_duplicate_total",
			Help: "Duplicate events by the check that caught them",
		},
		[]string{"tier"}, // kv, durable, constraint
	)

	EventProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pulse_event_processing_duration_seconds",
			Help:    "End-to-end processing time of one event",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	PipelineStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_pipeline_step_duration_seconds",
			Help:    "Duration of a single pipeline step",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"step"}, // gate, persist, index, count, mark
	)

	PipelineStepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_pipeline_step_failures_total",
			Help: "Best-effort pipeline steps that ran and failed",
		},
		[]string{"step"},
	)

	PipelineStepSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_pipeline_step_skipped_total",
			Help: "Pipeline steps skipped because the sink's circuit breaker was open",
		},
		[]string{"step"},
	)

	// Dead Letter Metrics
	DLQSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_dlq_saved_total",
			Help: "Total number of records quarantined in the dead-letter store",
		},
		[]string{"source"}, // consumer, monitor
	)

	DLQSaveFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_dlq_save_failures_total",
			Help: "Dead-letter writes that failed; the record was acknowledged anyway",
		},
		[]string{"source"},
	)

	DLQForwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_dlq_forwarded_total",
			Help: "Quarantined records forwarded to the dead-letter topic",
		},
		[]string{"result"},
	)

	// Sink Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_db_query_duration_seconds",
			Help:    "Duration of durable store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_db_query_errors_total",
			Help: "Total number of durable store query errors",
		},
		[]string{"operation", "table"},
	)

	DBOpenConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulse_db_open_connections",
			Help: "Open connections in the durable store pool",
		},
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_search_requests_total",
			Help: "Total number of search index requests",
		},
		[]string{"operation", "result"},
	)

	SearchRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_search_request_duration_seconds",
			Help:    "Duration of search index requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	KVOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_kv_operations_total",
			Help: "Total number of counter store operations",
		},
		[]string{"backend", "operation", "result"},
	)

	KVOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_kv_operation_duration_seconds",
			Help:    "Duration of counter store operations",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"backend", "operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pulse_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pulse_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Producer Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_events_published_total",
			Help: "Events published to the log by the write API",
		},
		[]string{"topic", "result"},
	)

	EventsSimulated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_events_simulated_total",
			Help: "Events synthesized by the simulate endpoint",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulse_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Read cache Metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_read_cache_lookups_total",
			Help: "Distribution cache lookups by cache and result (hit, miss)",
		},
		[]string{"cache", "result"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulse_websocket_connections",
			Help: "Current number of live dashboard websocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_websocket_messages_sent_total",
			Help: "Total number of websocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_websocket_errors_total",
			Help: "Total number of websocket errors",
		},
		[]string{"error_type"},
	)

	DashboardBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_dashboard_broadcasts_total",
			Help: "Dashboard summaries pushed to websocket subscribers",
		},
		[]string{"result"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pulse_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version", "mode"},
	)
)

func resultLabel(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}

// RecordPoll records one poll batch.
func RecordPoll(group string, recordsByTopic map[string]int, fetchErrors int) {
	total := 0
	for topic, n := range recordsByTopic {
		ConsumerRecordsPolled.WithLabelValues(group, topic).Add(float64(n))
		total += n
	}
	if total > 0 {
		ConsumerBatchSize.WithLabelValues(group).Observe(float64(total))
	}
	if fetchErrors > 0 {
		ConsumerPollErrors.WithLabelValues(group).Add(float64(fetchErrors))
	}
}

// RecordCommit records an offset commit.
func RecordCommit(group string, err error) {
	ConsumerCommits.WithLabelValues(group, resultLabel(err)).Inc()
}

// RecordDrainTimeout records a shutdown that gave up on in-flight records.
func RecordDrainTimeout(group string) {
	ConsumerDrainTimeouts.WithLabelValues(group).Inc()
}

// RecordEventOutcome records an event leaving the pipeline.
func RecordEventOutcome(outcome string, duration time.Duration) {
	EventsProcessed.WithLabelValues(outcome).Inc()
	EventProcessingDuration.Observe(duration.Seconds())
}

// RecordDuplicate records a duplicate caught by tier.
func RecordDuplicate(tier string) {
	EventsDuplicate.WithLabelValues(tier).Inc()
}

// RecordStep records a pipeline step that ran.
func RecordStep(step string, duration time.Duration, err error) {
	PipelineStepDuration.WithLabelValues(step).Observe(duration.Seconds())
	if err != nil {
		PipelineStepFailures.WithLabelValues(step).Inc()
	}
}

// RecordStepSkipped records a step skipped by an open breaker.
func RecordStepSkipped(step string) {
	PipelineStepSkipped.WithLabelValues(step).Inc()
}

// RecordDLQSave records a dead-letter write.
func RecordDLQSave(source string, err error) {
	if err != nil {
		DLQSaveFailures.WithLabelValues(source).Inc()
		return
	}
	DLQSaved.WithLabelValues(source).Inc()
}

// RecordDLQForward records forwarding a quarantined record to the DLQ topic.
func RecordDLQForward(err error) {
	DLQForwarded.WithLabelValues(resultLabel(err)).Inc()
}

// RecordDBQuery records a durable store query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordSearchRequest records a search index request.
func RecordSearchRequest(operation string, duration time.Duration, err error) {
	SearchRequests.WithLabelValues(operation, resultLabel(err)).Inc()
	SearchRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordKVOperation records a counter store operation.
func RecordKVOperation(backend, operation string, duration time.Duration, err error) {
	KVOperations.WithLabelValues(backend, operation, resultLabel(err)).Inc()
	KVOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordPublish records a produce result.
func RecordPublish(topic string, err error) {
	EventsPublished.WithLabelValues(topic, resultLabel(err)).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheLookup records a read cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordDashboardBroadcast records a live dashboard push.
func RecordDashboardBroadcast(err error) {
	DashboardBroadcasts.WithLabelValues(resultLabel(err)).Inc()
}
