package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/toolhive-bucket-sync/internal/api"
	"github.com/stacklok/toolhive-bucket-sync/internal/app/storage"
	"github.com/stacklok/toolhive-bucket-sync/internal/config"
	"github.com/stacklok/toolhive-bucket-sync/internal/leader"
	pkgsync "github.com/stacklok/toolhive-bucket-sync/internal/sync"
	"github.com/stacklok/toolhive-bucket-sync/internal/sync/coordinator"
	"github.com/stacklok/toolhive-bucket-sync/internal/telemetry"
	"github.com/stacklok/toolhive-bucket-sync/internal/translate"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second

	tracerName = "github.com/stacklok/toolhive-bucket-sync/internal/sync"
)

// SyncAppOptions is a function that configures the sync app builder
type SyncAppOptions func(*syncAppConfig) error

// syncAppConfig collects the options of NewSyncApp.
// It supports dependency injection for testing while providing sensible defaults for production
type syncAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	storageFactory storage.Factory
	syncManager    pkgsync.Manager
	gate           leader.Gate

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	telemetry *telemetry.Telemetry
}

func baseConfig(opts ...SyncAppOptions) (*syncAppConfig, error) {
	cfg := &syncAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.Ops.GetAddress()
	}

	return cfg, nil
}

// NewSyncApp wires the stores, the leader gate, the coordinator and the ops server
func NewSyncApp(
	ctx context.Context,
	opts ...SyncAppOptions,
) (*SyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	// Storage factory is the single decision point for postgres, sqlite and memory
	if cfg.storageFactory == nil {
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	// Ensure cleanup happens on error
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded {
			cfg.storageFactory.Cleanup()
			if cfg.gate != nil {
				_ = cfg.gate.Close()
			}
		}
	}()

	syncCoordinator, err := buildSyncComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	httpServer, err := buildHTTPServer(ctx, cfg, syncCoordinator)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	// Cleanup is now handled by the app
	cleanupNeeded = false

	return &SyncApp{
		config: cfg.config,
		components: &AppComponents{
			SyncCoordinator: syncCoordinator,
			SyncManager:     cfg.syncManager,
			Gate:            cfg.gate,
			Storage:         cfg.storageFactory,
			Telemetry:       cfg.telemetry,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the ops HTTP server address, overriding ops.address
func WithAddress(addr string) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithGate allows injecting a leader gate instead of building one from leader.type
func WithGate(g leader.Gate) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.gate = g
		return nil
	}
}

// WithTelemetry sets the telemetry providers for metrics, tracing and /metrics
func WithTelemetry(t *telemetry.Telemetry) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// buildSyncComponents builds the sync manager, the leader gate and the coordinator
func buildSyncComponents(
	ctx context.Context,
	b *syncAppConfig,
) (coordinator.Coordinator, error) {
	slog.Info("Initializing sync components")

	var syncMetrics *telemetry.SyncMetrics
	if b.telemetry != nil {
		var err error
		syncMetrics, err = telemetry.NewSyncMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create sync metrics: %w", err)
		}
		if syncMetrics != nil {
			slog.Info("Sync metrics enabled")
		}
	}

	if b.syncManager == nil {
		sourceStore, err := b.storageFactory.CreateSourceStore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create source store: %w", err)
		}
		bucketWriter, err := b.storageFactory.CreateBucketWriter(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket writer: %w", err)
		}

		execOpts := []pkgsync.ExecutorOption{
			pkgsync.WithConcurrency(b.config.Sync.Concurrency),
			pkgsync.WithMetrics(syncMetrics),
		}
		if b.telemetry != nil {
			execOpts = append(execOpts, pkgsync.WithTracer(b.telemetry.Tracer(tracerName)))
		}
		b.syncManager = pkgsync.NewManager(sourceStore, bucketWriter, translate.NewSourceTranslator(), execOpts...)
	}

	statusPersistence, err := b.storageFactory.CreateStatusPersistence(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create status persistence: %w", err)
	}

	if b.gate == nil {
		b.gate, err = leader.New(&b.config.Leader)
		if err != nil {
			return nil, fmt.Errorf("failed to create leader gate: %w", err)
		}
	}

	var coordOpts []coordinator.Option
	if syncMetrics != nil {
		coordOpts = append(coordOpts, coordinator.WithSyncMetrics(syncMetrics))
	}

	syncCoordinator := coordinator.New(b.syncManager, b.gate, statusPersistence, b.config, coordOpts...)
	slog.Info("Sync components initialized successfully",
		"role", b.config.Leader.GetRole(),
		"leader_type", b.config.Leader.Type)

	return syncCoordinator, nil
}

// buildHTTPServer builds the ops HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *syncAppConfig,
	cycles api.CycleReporter,
) (*http.Server, error) {
	slog.Info("Initializing ops HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
		if b.telemetry != nil {
			b.middlewares = append(b.middlewares, telemetry.TracingMiddleware(b.telemetry.TracerProvider()))
		}
	}

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
		api.WithRole(b.config.Leader.GetRole()),
	}
	if b.syncManager != nil {
		serverOpts = append(serverOpts, api.WithPlanner(b.syncManager))
	}
	if b.telemetry != nil && b.telemetry.MetricsHandler() != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.telemetry.MetricsHandler()))
		slog.Info("Prometheus metrics endpoint enabled", "path", "/metrics")
	}

	router := api.NewServer(cycles, b.gate, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("Ops HTTP server configured", "address", b.address)
	return server, nil
}
