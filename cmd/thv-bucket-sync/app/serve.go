package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stacklok/toolhive-bucket-sync/internal/app"
	"github.com/stacklok/toolhive-bucket-sync/internal/telemetry"
	"github.com/stacklok/toolhive-bucket-sync/internal/versions"
)

const defaultGracefulTimeout = 30 * time.Second // Kubernetes-friendly shutdown time

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the synchronizer",
		Long: `Run the synchronizer: campaign for the configured role and, while leader,
reconcile the bucket management store with the legacy source store.

The configuration file (--config) specifies:
- The leader election backend (kubernetes, redis, file or standalone)
- The source and target stores
- The reconciliation schedule and the ops endpoint`,
		RunE: runServe,
	}

	addConfigFlag(cmd)
	cmd.Flags().String("address", "", "Ops address to listen on (overrides ops.address)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = versions.GetVersionInfo().Version
	}
	tel, err := telemetry.New(ctx,
		telemetry.WithTelemetryConfig(cfg.Telemetry),
		telemetry.WithRole(cfg.Leader.GetRole()),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	opts := []app.SyncAppOptions{
		app.WithConfig(cfg),
		app.WithTelemetry(tel),
	}
	address, err := cmd.Flags().GetString("address")
	if err != nil {
		return fmt.Errorf("failed to get address flag: %w", err)
	}
	if address != "" {
		opts = append(opts, app.WithAddress(address))
	}

	syncApp, err := app.NewSyncApp(ctx, opts...)
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return fmt.Errorf("failed to build application: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- syncApp.Start()
	}()

	select {
	case err := <-errChan:
		_ = syncApp.Stop(defaultGracefulTimeout)
		return err
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	}

	if err := syncApp.Stop(defaultGracefulTimeout); err != nil {
		slog.Error("Shutdown failed", "error", err)
		os.Exit(1)
	}
	return nil
}
