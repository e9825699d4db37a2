package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/stacklok/toolhive-bucket-sync/internal/config"
	"github.com/stacklok/toolhive-bucket-sync/internal/leader"
	"github.com/stacklok/toolhive-bucket-sync/internal/status"
	pkgsync "github.com/stacklok/toolhive-bucket-sync/internal/sync"
	"github.com/stacklok/toolhive-bucket-sync/internal/telemetry"
)

// Coordinator drives reconciliation cycles behind a leader gate
type Coordinator interface {
	// Start registers for leadership and runs the reconciliation loop.
	// Blocks until the context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop suppresses future ticks, waits for the loop to exit and releases
	// leadership. A cycle already in flight runs to completion.
	Stop() error

	// LastCycle returns a copy of the status of the most recent cycle, or nil
	LastCycle() *status.CycleStatus
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager     pkgsync.Manager
	gate        leader.Gate
	persistence status.Persistence

	role               string
	leaderInitialDelay time.Duration
	leaderRetryPeriod  time.Duration
	syncInitialDelay   time.Duration
	interval           time.Duration

	// Lifecycle management
	lifecycleMu gosync.Mutex
	cancelFunc  context.CancelFunc
	done        chan struct{}

	// Cycle state, read by the ops API
	mu            gosync.RWMutex
	lastCycle     *status.CycleStatus
	wasLeader     bool
	leaderChanges int

	// Metrics
	syncMetrics *telemetry.SyncMetrics
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// New creates a new coordinator with injected dependencies
func New(
	manager pkgsync.Manager,
	gate leader.Gate,
	persistence status.Persistence,
	cfg *config.Config,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		manager:            manager,
		gate:               gate,
		persistence:        persistence,
		role:               cfg.Leader.GetRole(),
		leaderInitialDelay: cfg.Leader.GetInitialDelay(),
		leaderRetryPeriod:  cfg.Leader.GetRetryPeriod(),
		syncInitialDelay:   cfg.Sync.GetInitialDelay(),
		interval:           cfg.Sync.GetInterval(),
		done:               make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start registers for leadership and runs the reconciliation loop
func (c *defaultCoordinator) Start(ctx context.Context) error {
	slog.Info("Starting bucket sync coordinator",
		"role", c.role,
		"interval", c.interval)

	coordCtx, cancel := context.WithCancel(ctx)
	c.lifecycleMu.Lock()
	c.cancelFunc = cancel
	c.lifecycleMu.Unlock()
	defer func() {
		cancel()
		close(c.done)
		slog.Info("Bucket sync coordinator shutting down", "role", c.role)
	}()

	c.restoreStatus(ctx)

	var drivers gosync.WaitGroup
	drivers.Go(func() {
		c.acquireLeadership(coordCtx)
	})

	c.reconcileLoop(coordCtx)
	drivers.Wait()
	return nil
}

// Stop suppresses future ticks and releases leadership
func (c *defaultCoordinator) Stop() error {
	c.lifecycleMu.Lock()
	cancel := c.cancelFunc
	c.lifecycleMu.Unlock()

	if cancel != nil {
		slog.Info("Stopping bucket sync coordinator", "role", c.role)
		cancel()
		<-c.done
	}

	if err := c.gate.Close(); err != nil {
		return fmt.Errorf("failed to release leadership: %w", err)
	}
	return nil
}

// LastCycle returns a copy of the most recent cycle status
func (c *defaultCoordinator) LastCycle() *status.CycleStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.lastCycle == nil {
		return nil
	}
	cycle := *c.lastCycle
	return &cycle
}

// restoreStatus loads the status persisted by a previous run of this process
func (c *defaultCoordinator) restoreStatus(ctx context.Context) {
	persisted, err := c.persistence.LoadStatus(ctx, c.role)
	if err != nil {
		slog.Warn("Failed to load persisted cycle status", "role", c.role, "error", err)
		return
	}
	if persisted == nil || persisted.Phase == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastCycle = persisted
	c.leaderChanges = persisted.LeaderChanges
}

// acquireLeadership registers the process as a candidate once, after the
// initial delay. Registration failures are retried with exponential backoff
// until they succeed or the coordinator stops.
func (c *defaultCoordinator) acquireLeadership(ctx context.Context) {
	timer := time.NewTimer(c.leaderInitialDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.leaderRetryPeriod

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, c.gate.TryAcquire(ctx)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Failed to register for leadership, retrying",
				"role", c.role,
				"retry_in", next,
				"error", err)
		}),
	)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("Gave up registering for leadership", "role", c.role, "error", err)
		}
		return
	}

	slog.Info("Registered for leadership", "role", c.role)
}

// reconcileLoop runs ticks with a fixed delay: the next tick is scheduled
// only after the previous one has returned, so cycles never overlap
func (c *defaultCoordinator) reconcileLoop(ctx context.Context) {
	timer := time.NewTimer(c.syncInitialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Reconciliation loop stopping", "role", c.role)
			return
		case <-timer.C:
			c.tick(ctx)
			timer.Reset(c.interval)
		}
	}
}

// tick runs one cycle when this process is the leader
func (c *defaultCoordinator) tick(ctx context.Context) {
	isLeader := c.gate.IsLeader()
	c.observeLeadership(ctx, isLeader)
	if !isLeader {
		return
	}

	// In-flight units are not interrupted by Stop
	c.runCycle(context.WithoutCancel(ctx))
}

// observeLeadership logs and counts leadership transitions
func (c *defaultCoordinator) observeLeadership(ctx context.Context, isLeader bool) {
	c.mu.Lock()
	wasLeader := c.wasLeader
	c.wasLeader = isLeader
	if isLeader && !wasLeader {
		c.leaderChanges++
	}
	changes := c.leaderChanges
	c.mu.Unlock()

	c.syncMetrics.RecordLeader(ctx, c.role, isLeader)

	switch {
	case isLeader && !wasLeader:
		slog.Info("Now the leader, starting reconciliation", "role", c.role, "leader_changes", changes)
		c.syncMetrics.RecordLeaderChange(ctx, c.role)
	case !isLeader && wasLeader:
		slog.Warn("No longer the leader, suspending reconciliation", "role", c.role)
	}
}

// runCycle runs one reconciliation cycle and records its status
func (c *defaultCoordinator) runCycle(ctx context.Context) {
	startedAt := time.Now()

	c.mu.Lock()
	changes := c.leaderChanges
	c.lastCycle = &status.CycleStatus{
		Phase:         status.CyclePhaseRunning,
		Message:       "Reconciliation in progress",
		StartedAt:     &startedAt,
		LeaderChanges: changes,
	}
	c.mu.Unlock()

	// Set a default failure in case the cycle panics
	cycle := &status.CycleStatus{
		Phase:         status.CyclePhaseFailed,
		Message:       "Unexpected failure during reconciliation",
		StartedAt:     &startedAt,
		LeaderChanges: changes,
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered panic in reconciliation cycle", "role", c.role, "panic", r)
		}

		finishedAt := time.Now()
		cycle.FinishedAt = &finishedAt
		c.syncMetrics.RecordCycleDuration(ctx, c.role, finishedAt.Sub(startedAt), string(cycle.Phase))

		c.mu.Lock()
		c.lastCycle = cycle
		c.mu.Unlock()

		if err := c.persistence.SaveStatus(ctx, c.role, cycle); err != nil {
			slog.Error("Failed to persist cycle status", "role", c.role, "error", err)
		}
	}()

	result, syncErr := c.manager.RunCycle(ctx)
	if syncErr != nil {
		cycle.Phase = status.CyclePhaseFailed
		cycle.Message = syncErr.Message
		slog.Error("Reconciliation cycle failed", "role", c.role, "error", syncErr.Message)
		return
	}

	cycle.Created = len(result.Plan.Create)
	cycle.Deleted = len(result.Plan.Delete)
	cycle.Updated = len(result.Plan.Update)
	cycle.Failed = result.Failed()

	switch {
	case result.Plan.Empty():
		cycle.Phase = status.CyclePhaseComplete
		cycle.Message = "Buckets are up to date"
	case cycle.Failed == 0:
		cycle.Phase = status.CyclePhaseComplete
		cycle.Message = fmt.Sprintf("Applied %d changes", result.Plan.Size())
	default:
		cycle.Phase = status.CyclePhasePartial
		cycle.Message = fmt.Sprintf("Applied %d changes, %d failed", result.Plan.Size(), cycle.Failed)
	}
}
