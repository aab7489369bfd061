// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package config

import (
	"fmt"
	"strings"
)

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateAPI,
		c.validateSecurity,
		c.validateKafka,
		c.validateConsumer,
		c.validateDatabase,
		c.validateSearch,
		c.validateKV,
		c.validateBreaker,
		c.validateSimulate,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// validateSecurity rejects an unthrottled write API in production, where
// POST /simulate would otherwise let one caller flood the topics.
func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled && c.Server.IsProduction() {
		return fmt.Errorf("DISABLE_RATE_LIMIT is not allowed when ENVIRONMENT=production")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be at least 1, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE (%d) must not be below API_DEFAULT_PAGE_SIZE (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if c.API.MaxBodyBytes <= 0 {
		return fmt.Errorf("API_MAX_BODY_BYTES must be positive")
	}
	if c.API.DistributionCacheTTL < 0 {
		return fmt.Errorf("API_DISTRIBUTION_CACHE_TTL must not be negative")
	}
	return nil
}

func (c *Config) validateKafka() error {
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	for _, b := range c.Kafka.Brokers {
		if err := validateBrokerAddr(b); err != nil {
			return fmt.Errorf("KAFKA_BROKERS is invalid: %w", err)
		}
	}
	topics := map[string]bool{}
	for _, t := range c.Kafka.AllTopics() {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("kafka topic names must not be empty")
		}
		if topics[t] {
			return fmt.Errorf("kafka topic %q is configured twice", t)
		}
		topics[t] = true
	}
	if c.Kafka.Partitions < 1 {
		return fmt.Errorf("KAFKA_PARTITIONS must be at least 1")
	}
	if c.Kafka.ReplicationFactor < 1 {
		return fmt.Errorf("KAFKA_REPLICATION_FACTOR must be at least 1")
	}
	return nil
}

func (c *Config) validateConsumer() error {
	if c.Consumer.Group == "" {
		return fmt.Errorf("CONSUMER_GROUP is required")
	}
	if c.Consumer.DLQMonitorEnabled && c.Consumer.DLQGroup == "" {
		return fmt.Errorf("CONSUMER_DLQ_GROUP is required when the DLQ monitor is enabled")
	}
	if c.Consumer.DLQGroup == c.Consumer.Group {
		return fmt.Errorf("CONSUMER_DLQ_GROUP must differ from CONSUMER_GROUP")
	}
	if c.Consumer.Concurrency < 1 {
		return fmt.Errorf("CONSUMER_CONCURRENCY must be at least 1, got %d", c.Consumer.Concurrency)
	}
	if c.Consumer.MaxPollRecords < 1 {
		return fmt.Errorf("CONSUMER_MAX_POLL must be at least 1, got %d", c.Consumer.MaxPollRecords)
	}
	if c.Consumer.DrainTimeout <= 0 {
		return fmt.Errorf("CONSUMER_DRAIN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
		if err := validatePostgresDSN(c.Database.DSN); err != nil {
			return fmt.Errorf("DATABASE_URL is invalid: %w", err)
		}
	case "duckdb":
		// empty path means in-memory
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or duckdb, got %q", c.Database.Driver)
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("DATABASE_QUERY_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if !c.Search.Enabled {
		return nil
	}
	if len(c.Search.Addresses) == 0 {
		return fmt.Errorf("ELASTICSEARCH_URLS is required when search is enabled")
	}
	for _, addr := range c.Search.Addresses {
		if err := validateHTTPURL(addr, "ELASTICSEARCH_URLS"); err != nil {
			return fmt.Errorf("ELASTICSEARCH_URLS is invalid: %w", err)
		}
	}
	if c.Search.Index == "" {
		return fmt.Errorf("ELASTICSEARCH_INDEX is required")
	}
	return nil
}

func (c *Config) validateKV() error {
	switch c.KV.Backend {
	case "redis":
		if c.KV.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
		if err := validateBrokerAddr(c.KV.Addr); err != nil {
			return fmt.Errorf("REDIS_ADDR is invalid: %w", err)
		}
	case "badger":
		if c.KV.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required for the badger backend")
		}
		if c.KV.BadgerGCDiscardRatio <= 0 || c.KV.BadgerGCDiscardRatio >= 1 {
			return fmt.Errorf("kv.badger_gc_discard_ratio must be between 0 and 1, got %v", c.KV.BadgerGCDiscardRatio)
		}
	case "memory":
	default:
		return fmt.Errorf("KV_BACKEND must be redis, badger or memory, got %q", c.KV.Backend)
	}
	if c.KV.MarkerTTL <= 0 || c.KV.RateBucketTTL <= 0 {
		return fmt.Errorf("kv marker and rate bucket TTLs must be positive")
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if c.Breaker.FailureThreshold < 1 {
		return fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be at least 1")
	}
	if c.Breaker.MaxRequests < 1 {
		return fmt.Errorf("BREAKER_MAX_REQUESTS must be at least 1")
	}
	if c.Breaker.Timeout <= 0 || c.Breaker.CallTimeout <= 0 {
		return fmt.Errorf("BREAKER_TIMEOUT and BREAKER_CALL_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSimulate() error {
	if c.Simulate.MaxCount < 1 {
		return fmt.Errorf("SIMULATE_MAX_COUNT must be at least 1")
	}
	if c.Simulate.DefaultCount < 1 || c.Simulate.DefaultCount > c.Simulate.MaxCount {
		return fmt.Errorf("simulate default count must be between 1 and %d", c.Simulate.MaxCount)
	}
	if c.Simulate.RatePerSecond <= 0 {
		return fmt.Errorf("SIMULATE_RATE_PER_SECOND must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be trace, debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
