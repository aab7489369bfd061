// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package logging

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KgoLogger is a kgo.Logger backed by zerolog, so the Kafka client logs
// with the rest of the process.
type KgoLogger struct {
	logger zerolog.Logger
}

// NewKgoLogger wraps the global logger with a component field.
func NewKgoLogger(component string) *KgoLogger {
	return &KgoLogger{logger: WithComponent(component)}
}

// NewKgoLoggerWithLogger wraps a specific zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewKgoLoggerWithLogger(logger zerolog.Logger) *KgoLogger {
	return &KgoLogger{logger: logger}
}

// Level maps the logger's zerolog level to the kgo level. The client skips
// building log lines above it.
func (l *KgoLogger) Level() kgo.LogLevel {
	level := l.logger.GetLevel()
	if g := zerolog.GlobalLevel(); g > level {
		level = g
	}
	switch {
	case level <= zerolog.DebugLevel:
		return kgo.LogLevelDebug
	case level == zerolog.InfoLevel:
		return kgo.LogLevelInfo
	case level == zerolog.WarnLevel:
		return kgo.LogLevelWarn
	case level <= zerolog.PanicLevel:
		return kgo.LogLevelError
	default:
		return kgo.LogLevelNone
	}
}

// Log writes msg with keyvals as fields.
func (l *KgoLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	var event *zerolog.Event
	switch level {
	case kgo.LogLevelError:
		event = l.logger.Error()
	case kgo.LogLevelWarn:
		event = l.logger.Warn()
	case kgo.LogLevelInfo:
		event = l.logger.Info()
	case kgo.LogLevelDebug:
		event = l.logger.Debug()
	default:
		return
	}
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		if err, isErr := keyvals[i+1].(error); isErr {
			event = event.AnErr(key, err)
			continue
		}
		event = event.Interface(key, keyvals[i+1])
	}
	event.Msg(msg)
}
