// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/database"
	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/producer"
	"github.com/tomtom215/pulse/internal/search"
)

// migrate applies pending schema migrations and creates the search index
// when search is enabled. Both steps are idempotent.
func migrate(ctx context.Context, cfg *config.Config) error {
	dbCfg := cfg.Database
	dbCfg.AutoMigrate = false
	db, err := database.New(ctx, &dbCfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	version, err := db.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	history, err := db.MigrationHistory(ctx)
	if err != nil {
		return fmt.Errorf("read migration history: %w", err)
	}
	for _, m := range history {
		logging.Debug().Int("version", m.Version).Str("name", m.Name).Time("applied_at", m.AppliedAt).Msg("Migration applied")
	}
	logging.Info().Str("driver", db.Driver()).Int("schema_version", version).Int("migrations", len(history)).Msg("Database schema up to date")

	if !cfg.Search.Enabled {
		return nil
	}
	index, err := search.New(&cfg.Search)
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	if err := index.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure search index: %w", err)
	}
	logging.Info().Str("index", index.Name()).Msg("Search index ready")
	return nil
}

// createTopics creates the primary and dead-letter topics. Topics that
// already exist are left unchanged.
func createTopics(ctx context.Context, cfg *config.Config) error {
	client, err := producer.NewClient(&cfg.Kafka)
	if err != nil {
		return err
	}
	adm := kadm.NewClient(client)
	defer adm.Close()

	resp, err := adm.CreateTopics(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor, nil, cfg.Kafka.AllTopics()...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}

	var failed []string
	for _, t := range resp.Sorted() {
		switch {
		case errors.Is(t.Err, kerr.TopicAlreadyExists):
			logging.Info().Str("topic", t.Topic).Msg("Topic already exists")
		case t.Err != nil:
			logging.Error().Err(t.Err).Str("topic", t.Topic).Msg("Failed to create topic")
			failed = append(failed, t.Topic)
		default:
			logging.Info().Str("topic", t.Topic).
				Int32("partitions", cfg.Kafka.Partitions).
				Int16("replication_factor", cfg.Kafka.ReplicationFactor).
				Msg("Topic created")
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("create topics: %d of %d failed: %v", len(failed), len(resp), failed)
	}
	return nil
}
