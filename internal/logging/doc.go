// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

// Package logging provides zerolog-based structured logging for Pulse.
//
// A single global logger is configured once at startup from the logging
// section of the configuration:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("topic", "user-events").Msg("consumer started")
//
// When the config file changes, Reconfigure applies the new logging
// section; a level change takes effect without rebuilding the logger.
//
// Request-scoped logging picks up the request and correlation IDs that
// the HTTP middleware stores in the context:
//
//	logging.Ctx(r.Context()).Warn().Msg("batch rejected")
//
// The pipeline has its own helper, PipelineLogger, which attaches the
// log coordinates (topic, partition, offset) and the event ID to every
// line so that a single event can be traced from poll to commit.
//
// The slog adapter lets libraries that speak log/slog, such as the
// suture supervisor hook, write through the same zerolog output.
package logging
