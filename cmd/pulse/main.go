// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/tomtom215/pulse/docs" // registers the OpenAPI document served at /swagger/
	"github.com/tomtom215/pulse/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		logging.Error().Err(err).Msg("Pulse exited with an error")
		os.Exit(1)
	}
}
