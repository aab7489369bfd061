// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package config

import "time"

// Config holds all application configuration.
//
// Loading order (koanf v2):
//  1. Defaults: built-in values for every setting
//  2. Config file: optional YAML (config.yaml or CONFIG_PATH)
//  3. Environment variables: override any mapped setting
//
// Sections:
//
//   - Server, API, Security: HTTP surface of the read and write APIs
//   - Kafka, Consumer: log transport, topics and the consumer group
//   - Database, Search, KV: the three sinks
//   - Breaker, DLQ: failure isolation and quarantine
//   - Simulate, Dashboard: load generation and live dashboard push
//   - Logging
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Kafka     KafkaConfig     `koanf:"kafka"`
	Consumer  ConsumerConfig  `koanf:"consumer"`
	Database  DatabaseConfig  `koanf:"database"`
	Search    SearchConfig    `koanf:"search"`
	KV        KVConfig        `koanf:"kv"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	DLQ       DLQConfig       `koanf:"dlq"`
	Simulate  SimulateConfig  `koanf:"simulate"`
	Dashboard DashboardConfig `koanf:"dashboard"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// APIConfig holds read API paging and request body limits.
// DistributionCacheTTL caches the GROUP BY distribution queries; zero
// disables the cache.
type APIConfig struct {
	DefaultPageSize      int           `koanf:"default_page_size"`
	MaxPageSize          int           `koanf:"max_page_size"`
	MaxBodyBytes         int64         `koanf:"max_body_bytes"`
	DistributionCacheTTL time.Duration `koanf:"distribution_cache_ttl"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// KafkaConfig holds broker addresses and topic names.
//
// Environment Variables:
//   - KAFKA_BROKERS: comma-separated seed brokers (default: localhost:9092)
//   - KAFKA_CLIENT_ID: client id reported to the brokers (default: pulse)
//   - KAFKA_PARTITIONS: partitions per topic created by "pulse topics" (default: 3)
type KafkaConfig struct {
	Brokers           []string      `koanf:"brokers"`
	ClientID          string        `koanf:"client_id"`
	UserTopic         string        `koanf:"user_topic"`
	SystemTopic       string        `koanf:"system_topic"`
	DLQTopic          string        `koanf:"dlq_topic"`
	Partitions        int32         `koanf:"partitions"`
	ReplicationFactor int16         `koanf:"replication_factor"`
	ProduceTimeout    time.Duration `koanf:"produce_timeout"`
}

// ConsumerConfig holds consumer group settings.
type ConsumerConfig struct {
	Group             string        `koanf:"group"`
	DLQGroup          string        `koanf:"dlq_group"`
	DLQMonitorEnabled bool          `koanf:"dlq_monitor_enabled"`
	Concurrency       int           `koanf:"concurrency"`
	MaxPollRecords    int           `koanf:"max_poll_records"`
	FetchMaxWait      time.Duration `koanf:"fetch_max_wait"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	DrainTimeout      time.Duration `koanf:"drain_timeout"`
}

// DatabaseConfig holds durable store settings.
// Driver selects the dialect: "postgres" (DSN) or "duckdb" (Path, empty for in-memory).
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"`
	DSN             string        `koanf:"dsn"`
	Path            string        `koanf:"path"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// SearchConfig holds search index settings.
type SearchConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Addresses      []string      `koanf:"addresses"`
	Index          string        `koanf:"index"`
	Username       string        `koanf:"username"`
	Password       string        `koanf:"password"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// KVConfig holds counter store settings.
// Backend is one of "redis", "badger" or "memory".
type KVConfig struct {
	Backend          string        `koanf:"backend"`
	Addr             string        `koanf:"addr"`
	Password         string        `koanf:"password"`
	DB               int           `koanf:"db"`
	PoolSize         int           `koanf:"pool_size"`
	BadgerPath       string        `koanf:"badger_path"`
	OperationTimeout time.Duration `koanf:"operation_timeout"`
	MarkerTTL        time.Duration `koanf:"marker_ttl"`
	RateBucketTTL    time.Duration `koanf:"rate_bucket_ttl"`

	// Badger value log GC; markers and rate buckets expire constantly, so
	// the value log needs regular rewriting. Zero interval disables it.
	BadgerGCInterval     time.Duration `koanf:"badger_gc_interval"`
	BadgerGCDiscardRatio float64       `koanf:"badger_gc_discard_ratio"`
}

// BreakerConfig holds the settings shared by the per-sink circuit breakers.
type BreakerConfig struct {
	FailureThreshold uint32        `koanf:"failure_threshold"`
	Timeout          time.Duration `koanf:"timeout"`
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	CallTimeout      time.Duration `koanf:"call_timeout"`
}

// DLQConfig holds dead-letter quarantine settings.
type DLQConfig struct {
	ForwardToTopic bool `koanf:"forward_to_topic"`
	MaxErrorLength int  `koanf:"max_error_length"`
}

// SimulateConfig holds load simulation settings of the write API.
type SimulateConfig struct {
	DefaultCount  int     `koanf:"default_count"`
	MaxCount      int     `koanf:"max_count"`
	RatePerSecond float64 `koanf:"rate_per_second"`
}

// DashboardConfig holds live dashboard push settings.
type DashboardConfig struct {
	WebsocketEnabled  bool          `koanf:"websocket_enabled"`
	BroadcastInterval time.Duration `koanf:"broadcast_interval"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// Topics returns the primary topics consumed by the analytics group.
func (k KafkaConfig) Topics() []string {
	return []string{k.UserTopic, k.SystemTopic}
}

// AllTopics returns every topic the pipeline uses.
func (k KafkaConfig) AllTopics() []string {
	return []string{k.UserTopic, k.SystemTopic, k.DLQTopic}
}
