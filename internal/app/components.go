package app

import (
	"github.com/stacklok/toolhive-bucket-sync/internal/app/storage"
	"github.com/stacklok/toolhive-bucket-sync/internal/leader"
	pkgsync "github.com/stacklok/toolhive-bucket-sync/internal/sync"
	"github.com/stacklok/toolhive-bucket-sync/internal/sync/coordinator"
	"github.com/stacklok/toolhive-bucket-sync/internal/telemetry"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator drives reconciliation cycles behind the leader gate
	SyncCoordinator coordinator.Coordinator

	// SyncManager plans and applies cycles
	SyncManager pkgsync.Manager

	// Gate elects the single active instance
	Gate leader.Gate

	// Storage owns the database handles (optional)
	Storage storage.Factory

	// Telemetry owns the tracer and meter providers (optional)
	Telemetry *telemetry.Telemetry
}
