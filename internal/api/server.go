// Package api provides the operational HTTP surface of the bucket synchronizer.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/toolhive-bucket-sync/internal/api/common"
	"github.com/stacklok/toolhive-bucket-sync/internal/status"
	pkgsync "github.com/stacklok/toolhive-bucket-sync/internal/sync"
	"github.com/stacklok/toolhive-bucket-sync/internal/versions"
)

// CycleReporter exposes the status of the last reconciliation cycle
type CycleReporter interface {
	LastCycle() *status.CycleStatus
}

// LeaderReporter tells whether this process currently holds the role
type LeaderReporter interface {
	IsLeader() bool
}

// Planner computes the pending plan without applying it
type Planner interface {
	Plan(ctx context.Context) (*pkgsync.Plan, *pkgsync.Error)
}

// ServerOption configures the ops server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	metricsHandler http.Handler
	planner        Planner
	role           string
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsHandler serves Prometheus metrics on /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// WithPlanner serves the pending plan on /plan
func WithPlanner(p Planner) ServerOption {
	return func(cfg *serverConfig) {
		cfg.planner = p
	}
}

// WithRole sets the role name reported by /readiness
func WithRole(role string) ServerOption {
	return func(cfg *serverConfig) {
		cfg.role = role
	}
}

// NewServer creates the ops router
func NewServer(cycles CycleReporter, leader LeaderReporter, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		middlewares: []func(http.Handler) http.Handler{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(leader, cfg.role))
	r.Get("/status", statusHandler(cycles))
	r.Get("/version", versionHandler)
	if cfg.planner != nil {
		r.Get("/plan", planHandler(cfg.planner))
	}
	if cfg.metricsHandler != nil {
		r.Handle("/metrics", cfg.metricsHandler)
	}

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.DebugContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler reports ready on every instance; followers are ready standbys
func readinessHandler(leader LeaderReporter, role string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		common.WriteJSONResponse(w, ReadinessResponse{
			Status: "ready",
			Role:   role,
			Leader: leader.IsLeader(),
		}, http.StatusOK)
	}
}

func statusHandler(cycles CycleReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		cycle := cycles.LastCycle()
		if cycle == nil {
			common.WriteErrorResponse(w, "no reconciliation cycle has run yet", http.StatusNotFound)
			return
		}
		common.WriteJSONResponse(w, cycle, http.StatusOK)
	}
}

func planHandler(planner Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plan, syncErr := planner.Plan(r.Context())
		if syncErr != nil {
			slog.ErrorContext(r.Context(), "Failed to compute plan", "stage", syncErr.Stage, "error", syncErr.Err)
			common.WriteErrorResponse(w, syncErr.Message, http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, plan, http.StatusOK)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
