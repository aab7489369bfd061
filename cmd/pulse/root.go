// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/metrics"
)

// cliState is shared by the subcommands. cfg is loaded by the root
// command before any subcommand runs.
type cliState struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	state := &cliState{}

	root := &cobra.Command{
		Use:   "pulse",
		Short: "Event analytics pipeline",
		Long: `Pulse consumes events from Kafka, fans them out to a durable store,
a search index and a counter store, and serves dashboards over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(state.configPath)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			initLogging(cfg)
			metrics.AppInfo.WithLabelValues(version, runtime.Version(), cmd.Name()).Set(1)
			state.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&state.configPath, "config", "c", "",
		"path to a YAML config file (default: $CONFIG_PATH, ./config.yaml, /etc/pulse/config.yaml)")

	root.AddCommand(
		newConsumerCmd(state),
		newAPICmd(state),
		newAllCmd(state),
		newMigrateCmd(state),
		newTopicsCmd(state),
	)
	return root
}

func initLogging(cfg *config.Config) {
	logging.Init(loggingConfig(cfg))
}

func loggingConfig(cfg *config.Config) logging.Config {
	return logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	}
}

// watchLogging re-applies the logging section whenever an explicitly
// given config file changes. Other sections need a restart.
func (s *cliState) watchLogging() {
	if s.configPath == "" {
		return
	}
	err := config.WatchConfigFile(s.configPath, func() {
		cfg, err := config.Load(s.configPath)
		if err != nil {
			logging.Warn().Err(err).Str("path", s.configPath).Msg("Ignoring invalid config file change")
			return
		}
		rebuilt := logging.Reconfigure(loggingConfig(cfg))
		logging.Info().Str("level", cfg.Logging.Level).Bool("rebuilt", rebuilt).Msg("Logging configuration reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", s.configPath).Msg("Config file watch unavailable")
	}
}

func newConsumerCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "consumer",
		Short: "Run the pipeline consumer and the DLQ monitor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state.watchLogging()
			return run(cmd.Context(), state.cfg, roles{consumer: true})
		},
	}
}

func newAPICmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Run the HTTP API and the live dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state.watchLogging()
			return run(cmd.Context(), state.cfg, roles{api: true})
		},
	}
}

func newAllCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run the consumer and the HTTP API in one process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state.watchLogging()
			return run(cmd.Context(), state.cfg, roles{consumer: true, api: true})
		},
	}
}

func newMigrateCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the durable store schema and create the search index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), state.cfg)
		},
	}
}

func newTopicsCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "Create the event and dead-letter topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return createTopics(cmd.Context(), state.cfg)
		},
	}
}
