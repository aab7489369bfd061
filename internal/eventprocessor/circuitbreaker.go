// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package eventprocessor

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/metrics"
)

// Breaker names used for the fan-out sinks.
const (
	BreakerDurable = "durable"
	BreakerSearch  = "search"
)

// Breaker guards calls to one sink.
//
// CLOSED trips to OPEN after FailureThreshold consecutive failures, OPEN moves
// to HALF_OPEN after Timeout, and HALF_OPEN closes after MaxRequests
// successes. Every call runs under CallTimeout; a deadline overrun counts as
// a failure. ErrDuplicateEvent and ErrRejectedEvent are successful calls
// from the breaker's point of view.
//
// The breaker uses wall-clock time for its timeout. Tests that need an open
// breaker trip it with failures rather than by mocking time.
type Breaker struct {
	cb          *gobreaker.CircuitBreaker[struct{}]
	name        string
	callTimeout time.Duration
}

// NewBreaker creates a named breaker from cfg and initializes its metrics.
func NewBreaker(name string, cfg config.BreakerConfig) *Breaker {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= threshold
			if trip {
				logging.Warn().Str("breaker", name).Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
		IsSuccessful: func(err error) bool {
			return sinkHealthy(err)
		},
	})

	return &Breaker{cb: cb, name: name, callTimeout: cfg.CallTimeout}
}

// Do runs fn through the breaker under the per-call deadline. It returns
// fn's error, or a gobreaker rejection error when the call did not run
// (see IsBreakerOpen).
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		callCtx := ctx
		if b.callTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, b.callTimeout)
			defer cancel()
		}
		return struct{}{}, fn(callCtx)
	})

	switch {
	case sinkHealthy(err):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, metrics.ResultSuccess).Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	case IsBreakerOpen(err):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, metrics.ResultRejected).Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, metrics.ResultFailure).Inc()
		counts := b.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(counts.ConsecutiveFailures))
	}
	return err
}

// sinkHealthy reports whether err leaves the sink's health untouched.
func sinkHealthy(err error) bool {
	return err == nil || errors.Is(err, ErrDuplicateEvent) || errors.Is(err, ErrRejectedEvent)
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// StateString returns the state as CLOSED, OPEN or HALF_OPEN.
func (b *Breaker) StateString() string { return stateToString(b.cb.State()) }

// IsOpen reports whether calls are currently being rejected outright.
func (b *Breaker) IsOpen() bool { return b.cb.State() == gobreaker.StateOpen }

// stateToString maps a breaker state to its metric/log label.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "CLOSED"
	case gobreaker.StateHalfOpen:
		return "HALF_OPEN"
	case gobreaker.StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// stateToFloat maps a breaker state to the gauge value (0 closed, 1 half-open, 2 open).
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
