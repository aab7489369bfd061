// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultRedpandaImage is a Kafka-compatible single binary broker.
	DefaultRedpandaImage = "docker.redpanda.com/redpandadata/redpanda:v24.1.8"

	// DefaultPostgresImage is the durable store image.
	DefaultPostgresImage = "postgres:16-alpine"

	// DefaultRedisImage is the counter store image.
	DefaultRedisImage = "redis:7-alpine"

	// DefaultElasticsearchImage matches the go-elasticsearch client major version.
	DefaultElasticsearchImage = "docker.elastic.co/elasticsearch/elasticsearch:8.17.0"

	startTimeout = 2 * time.Minute
)

// Redpanda is a running broker. Broker is the seed address for kgo.
type Redpanda struct {
	testcontainers.Container
	Broker string
}

// StartRedpanda starts a single node broker.
//
// Kafka clients connect to the advertised address returned in metadata,
// so the broker is published on a fixed host port that it also advertises.
func StartRedpanda(ctx context.Context) (*Redpanda, error) {
	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("reserve redpanda port: %w", err)
	}
	advertised := "127.0.0.1:" + port

	req := testcontainers.ContainerRequest{
		Image:        DefaultRedpandaImage,
		ExposedPorts: []string{port + ":9092/tcp"},
		Cmd: []string{
			"redpanda", "start",
			"--overprovisioned", "--smp", "1",
			"--memory", "512M", "--reserve-memory", "0M",
			"--check=false", "--node-id", "0",
			"--kafka-addr", "0.0.0.0:9092",
			"--advertise-kafka-addr", advertised,
		},
		WaitingFor: wait.ForLog("Successfully started Redpanda").WithStartupTimeout(startTimeout),
	}
	container, _, err := startContainer(ctx, "redpanda", req, "9092")
	if err != nil {
		return nil, err
	}
	return &Redpanda{Container: container, Broker: advertised}, nil
}

// Postgres is a running database. DSN is a pgx connection URL.
type Postgres struct {
	testcontainers.Container
	DSN string
}

// StartPostgres starts an empty database named pulse.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	req := testcontainers.ContainerRequest{
		Image:        DefaultPostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "pulse",
			"POSTGRES_PASSWORD": "pulse",
			"POSTGRES_DB":       "pulse",
		},
		// the server restarts once after initdb
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(startTimeout),
	}
	container, endpoint, err := startContainer(ctx, "postgres", req, "5432")
	if err != nil {
		return nil, err
	}
	return &Postgres{
		Container: container,
		DSN:       fmt.Sprintf("postgres://pulse:pulse@%s/pulse?sslmode=disable", endpoint),
	}, nil
}

// Redis is a running counter store. Addr is host:port.
type Redis struct {
	testcontainers.Container
	Addr string
}

// StartRedis starts a Redis server without persistence.
func StartRedis(ctx context.Context) (*Redis, error) {
	req := testcontainers.ContainerRequest{
		Image:        DefaultRedisImage,
		ExposedPorts: []string{"6379/tcp"},
		Cmd:          []string{"redis-server", "--save", "", "--appendonly", "no"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(startTimeout),
	}
	container, endpoint, err := startContainer(ctx, "redis", req, "6379")
	if err != nil {
		return nil, err
	}
	return &Redis{Container: container, Addr: endpoint}, nil
}

// Elasticsearch is a running search node. URL is its HTTP address.
type Elasticsearch struct {
	testcontainers.Container
	URL string
}

// StartElasticsearch starts a single node cluster with security disabled.
func StartElasticsearch(ctx context.Context) (*Elasticsearch, error) {
	req := testcontainers.ContainerRequest{
		Image:        DefaultElasticsearchImage,
		ExposedPorts: []string{"9200/tcp"},
		Env: map[string]string{
			"discovery.type":         "single-node",
			"xpack.security.enabled": "false",
			"ES_JAVA_OPTS":           "-Xms512m -Xmx512m",
		},
		WaitingFor: wait.ForHTTP("/_cluster/health?wait_for_status=yellow").
			WithPort("9200/tcp").
			WithStartupTimeout(startTimeout),
	}
	container, endpoint, err := startContainer(ctx, "elasticsearch", req, "9200")
	if err != nil {
		return nil, err
	}
	return &Elasticsearch{Container: container, URL: "http://" + endpoint}, nil
}
