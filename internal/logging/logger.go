// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the level and encoding of the process logger.
type Config struct {
	Level     string    // trace, debug, info, warn, error or disabled
	Format    string    // json or console
	Caller    bool      // add file:line to every line
	Timestamp bool      // add the "time" field
	Output    io.Writer // os.Stderr when nil
}

// DefaultConfig is the logger used before Init runs: JSON at info level
// on stderr.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var (
	mu      sync.RWMutex
	log     zerolog.Logger
	current Config
)

//nolint:gochecknoinits // consumers and tests log before main calls Init
func init() {
	build(DefaultConfig())
}

// Init replaces the process logger.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	build(cfg)
}

// Reconfigure applies cfg to a running process and reports whether the
// logger had to be rebuilt. A change of level alone is applied through the
// zerolog global level, so component loggers derived earlier follow it.
// Any other change rebuilds the logger on the current output; cfg.Output
// is ignored.
func Reconfigure(cfg Config) (rebuilt bool) {
	mu.Lock()
	defer mu.Unlock()

	cfg.Output = current.Output
	cfg = withDefaults(cfg)
	if cfg.Format == current.Format && cfg.Caller == current.Caller && cfg.Timestamp == current.Timestamp {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level))
		current.Level = cfg.Level
		return false
	}
	build(cfg)
	return true
}

func withDefaults(cfg Config) Config {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return cfg
}

// build must be called with mu held.
func build(cfg Config) {
	cfg = withDefaults(cfg)

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.MessageFieldName = "message"

	out := cfg.Output
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}
	l := zerolog.New(out)
	if cfg.Timestamp {
		l = l.With().Timestamp().Logger()
	}
	if cfg.Caller {
		l = l.With().Caller().Logger()
	}
	log = l
	current = cfg
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Level returns the active minimum level.
func Level() zerolog.Level {
	return zerolog.GlobalLevel()
}

// Logger returns the process logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// With starts a child logger of the process logger.
//
//	consumerLog := logging.With().Str("group", "analytics-group").Logger()
func With() zerolog.Context {
	mu.RLock()
	defer mu.RUnlock()
	return log.With()
}

// Debug starts a debug line.
func Debug() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Debug()
}

// Info starts an info line.
//
//	logging.Info().Str("topic", topic).Msg("consumer started")
func Info() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Info()
}

// Warn starts a warn line.
func Warn() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Warn()
}

// Error starts an error line.
func Error() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Error()
}
