// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

// Package testinfra starts the pipeline's backing services in containers
// for integration tests.
//
// Every file is behind the integration build tag, so the package is empty
// in a plain "go test ./...":
//
//	go test -tags integration ./...
//
// # Containers
//
//   - StartRedpanda: Kafka-compatible broker for the consumer and producer
//   - StartPostgres: durable store
//   - StartRedis: counter and idempotency marker store
//   - StartElasticsearch: search index
//
// Example:
//
//	func TestPipeline(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//
//	    pg, err := testinfra.StartPostgres(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    db, err := database.New(ctx, &config.DatabaseConfig{Driver: "postgres", DSN: pg.DSN, AutoMigrate: true})
//	    // ...
//	}
//
// # CI Considerations
//
// These tests require Docker and network access. Tests are skipped
// gracefully if Docker is unavailable. The first run downloads the images.
package testinfra
