// Package main is the entry point for the ToolHive bucket synchronizer.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/stacklok/toolhive-bucket-sync/cmd/thv-bucket-sync/app"
	"github.com/stacklok/toolhive-bucket-sync/internal/config"
	"github.com/stacklok/toolhive-bucket-sync/internal/logging"
)

func main() {
	// Logs go to stderr to keep stdout clean for commands that output data (e.g., plan, version --format json).
	handler, err := logging.NewHandler(logging.WithLevel(logging.LevelFromEnv(config.EnvPrefix)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(handler)

	if err := app.NewRootCmd().Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
