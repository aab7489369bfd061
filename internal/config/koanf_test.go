// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies the defaults match the documented pipeline settings.
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.Kafka.Topics(); len(got) != 2 || got[0] != "user-events" || got[1] != "system-events" {
		t.Errorf("Kafka.Topics() = %v, want [user-events system-events]", got)
	}
	if cfg.Kafka.DLQTopic != "dead-letter-events" {
		t.Errorf("Kafka.DLQTopic = %q, want dead-letter-events", cfg.Kafka.DLQTopic)
	}
	if cfg.Consumer.Group != "analytics-group" || cfg.Consumer.DLQGroup != "dlq-monitor-group" {
		t.Errorf("unexpected consumer groups %q / %q", cfg.Consumer.Group, cfg.Consumer.DLQGroup)
	}
	if cfg.Consumer.Concurrency != 3 {
		t.Errorf("Consumer.Concurrency = %d, want 3", cfg.Consumer.Concurrency)
	}
	if cfg.Consumer.MaxPollRecords != 100 {
		t.Errorf("Consumer.MaxPollRecords = %d, want 100", cfg.Consumer.MaxPollRecords)
	}
	if cfg.Consumer.FetchMaxWait != 500*time.Millisecond {
		t.Errorf("Consumer.FetchMaxWait = %v, want 500ms", cfg.Consumer.FetchMaxWait)
	}
	if cfg.KV.MarkerTTL != 24*time.Hour || cfg.KV.RateBucketTTL != 10*time.Minute {
		t.Errorf("unexpected KV TTLs %v / %v", cfg.KV.MarkerTTL, cfg.KV.RateBucketTTL)
	}
	if cfg.Breaker.FailureThreshold != 5 || cfg.Breaker.MaxRequests != 3 {
		t.Errorf("unexpected breaker defaults %+v", cfg.Breaker)
	}
	if cfg.Simulate.MaxCount != 500 || cfg.Simulate.DefaultCount != 50 {
		t.Errorf("unexpected simulate defaults %+v", cfg.Simulate)
	}
	if cfg.API.DefaultPageSize != 20 {
		t.Errorf("API.DefaultPageSize = %d, want 20", cfg.API.DefaultPageSize)
	}
	if cfg.DLQ.MaxErrorLength != 2000 {
		t.Errorf("DLQ.MaxErrorLength = %d, want 2000", cfg.DLQ.MaxErrorLength)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"KAFKA_BROKERS", "kafka.brokers"},
		{"KAFKA_BOOTSTRAP_SERVERS", "kafka.brokers"},
		{"CONSUMER_CONCURRENCY", "consumer.concurrency"},
		{"DATABASE_URL", "database.dsn"},
		{"DUCKDB_PATH", "database.path"},
		{"ELASTICSEARCH_URLS", "search.addresses"},
		{"REDIS_ADDR", "kv.addr"},
		{"KV_BACKEND", "kv.backend"},
		{"BREAKER_CALL_TIMEOUT", "breaker.call_timeout"},
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"log_format", "logging.format"},

		// Unknown variables are ignored
		{"RANDOM_VAR", ""},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	t.Run("no config file exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if got := findConfigFile(); got != "" {
			t.Errorf("findConfigFile() = %q, want empty string", got)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("a: 1"), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		defer os.Remove(filepath.Join(tmpDir, "config.yaml"))

		if got := findConfigFile(); got != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", got)
		}
	})

	t.Run("CONFIG_PATH takes precedence", func(t *testing.T) {
		custom := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(custom, []byte("a: 1"), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		t.Setenv(ConfigPathEnvVar, custom)

		if got := findConfigFile(); got != custom {
			t.Errorf("findConfigFile() = %q, want %q", got, custom)
		}
	})

	t.Run("CONFIG_PATH pointing nowhere falls back", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		if got := findConfigFile(); got != "" {
			t.Errorf("findConfigFile() = %q, want empty string", got)
		}
	})
}

func TestLoadEnvVars(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("CONSUMER_CONCURRENCY", "6")
	t.Setenv("BREAKER_CALL_TIMEOUT", "750ms")
	t.Setenv("KV_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "broker-2:9092" {
		t.Errorf("Kafka.Brokers = %v, want two trimmed brokers", cfg.Kafka.Brokers)
	}
	if cfg.Consumer.Concurrency != 6 {
		t.Errorf("Consumer.Concurrency = %d, want 6", cfg.Consumer.Concurrency)
	}
	if cfg.Breaker.CallTimeout != 750*time.Millisecond {
		t.Errorf("Breaker.CallTimeout = %v, want 750ms", cfg.Breaker.CallTimeout)
	}
	if cfg.KV.Backend != "memory" {
		t.Errorf("KV.Backend = %q, want memory", cfg.KV.Backend)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	// defaults survive
	if cfg.Consumer.Group != "analytics-group" {
		t.Errorf("Consumer.Group = %q, want default", cfg.Consumer.Group)
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv(ConfigPathEnvVar, "")

	content := `
database:
  driver: duckdb
  path: ""
search:
  enabled: false
kv:
  backend: badger
  badger_path: /tmp/pulse-kv
breaker:
  failure_threshold: 2
  timeout: 5s
`
	path := filepath.Join(tmpDir, "pulse.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Driver != "duckdb" {
		t.Errorf("Database.Driver = %q, want duckdb", cfg.Database.Driver)
	}
	if cfg.Search.Enabled {
		t.Error("Search.Enabled = true, want false from file")
	}
	if cfg.KV.BadgerPath != "/tmp/pulse-kv" {
		t.Errorf("KV.BadgerPath = %q", cfg.KV.BadgerPath)
	}
	if cfg.Breaker.FailureThreshold != 2 || cfg.Breaker.Timeout != 5*time.Second {
		t.Errorf("unexpected breaker config %+v", cfg.Breaker)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: warn\nserver:\n  port: 9000\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error (env override)", cfg.Logging.Level)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000 (file)", cfg.Server.Port)
	}
}

func TestLoadValidationFailure(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("KV_BACKEND", "memcached")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "KV_BACKEND") {
		t.Errorf("Load() error = %v, want KV_BACKEND validation error", err)
	}
}
