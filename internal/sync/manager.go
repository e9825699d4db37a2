package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/toolhive-bucket-sync/internal/otel"
	"github.com/stacklok/toolhive-bucket-sync/internal/records"
	"github.com/stacklok/toolhive-bucket-sync/internal/sources"
	"github.com/stacklok/toolhive-bucket-sync/internal/sync/writer"
	"github.com/stacklok/toolhive-bucket-sync/internal/translate"
)

// Cycle stages that can fail a whole cycle
const (
	StageSourceIndex = "SourceIndex"
	StageTargetIndex = "TargetIndex"
)

// Error represents a failure that prevented a cycle from being planned
type Error struct {
	Err     error
	Message string
	Stage   string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CycleResult contains the outcome of one reconciliation cycle
type CycleResult struct {
	Plan       *Plan
	Results    []Result
	Skipped    []string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed returns the number of ids with at least one failed outcome
func (c *CycleResult) Failed() int {
	failed := 0
	for _, r := range c.Results {
		if !r.Success() {
			failed++
		}
	}
	return failed
}

// Duration returns how long the cycle took
func (c *CycleResult) Duration() time.Duration {
	return c.FinishedAt.Sub(c.StartedAt)
}

// Manager runs reconciliation cycles between the source store and the bucket store
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/toolhive-bucket-sync/internal/sync Manager
type Manager interface {
	// Plan computes the pending changes without applying them
	Plan(ctx context.Context) (*Plan, *Error)

	// RunCycle plans, applies and reports one complete cycle. It returns only
	// once every unit of work has completed.
	RunCycle(ctx context.Context) (*CycleResult, *Error)
}

// timeParserSource is implemented by translators that expose their timestamp chain
type timeParserSource interface {
	TimeParsers() []translate.TimeParser
}

// defaultManager is the default implementation of Manager
type defaultManager struct {
	sources  sources.Store
	writer   writer.BucketWriter
	executor *Executor
	parsers  []translate.TimeParser
}

// NewManager creates a Manager. The options configure the executor and the
// cycle clock and tracer. When the translator exposes its timestamp chain the
// planner compares source timestamps with the same chain.
func NewManager(
	src sources.Store, w writer.BucketWriter, tr translate.Translator, opts ...ExecutorOption,
) Manager {
	m := &defaultManager{
		sources:  src,
		writer:   w,
		executor: NewExecutor(src, w, tr, opts...),
	}
	if ps, ok := tr.(timeParserSource); ok {
		m.parsers = ps.TimeParsers()
	}
	return m
}

// Plan computes the pending changes without applying them
func (m *defaultManager) Plan(ctx context.Context) (*Plan, *Error) {
	plan, _, err := m.plan(ctx)
	return plan, err
}

// RunCycle plans, applies and reports one complete cycle
func (m *defaultManager) RunCycle(ctx context.Context) (*CycleResult, *Error) {
	startedAt := m.executor.now()

	ctx, span := otel.StartSpan(ctx, m.executor.tracer, "sync.cycle")
	defer span.End()

	plan, skipped, syncErr := m.plan(ctx)
	if syncErr != nil {
		otel.RecordError(span, syncErr)
		return nil, syncErr
	}

	span.SetAttributes(
		otel.AttrCreateCount.Int(len(plan.Create)),
		otel.AttrDeleteCount.Int(len(plan.Delete)),
		otel.AttrUpdateCount.Int(len(plan.Update)),
	)

	for _, id := range skipped {
		slog.Warn("Skipping update check, source timestamp is not recognized", "id", id)
	}

	result := &CycleResult{Plan: plan, Skipped: skipped, StartedAt: startedAt}
	if plan.Empty() {
		result.Results = []Result{}
		result.FinishedAt = m.executor.now()
		slog.Debug("Buckets are up to date")
		return result, nil
	}

	slog.Info("Applying reconciliation plan",
		"create", len(plan.Create),
		"delete", len(plan.Delete),
		"update", len(plan.Update))

	reporter := NewReporter(m.sources, startedAt)
	result.Results = m.executor.Execute(ctx, plan, reporter.Report)
	result.FinishedAt = m.executor.now()

	failed := result.Failed()
	span.SetAttributes(otel.AttrFailedCount.Int(failed))
	if failed > 0 {
		otel.RecordError(span, fmt.Errorf("%d of %d ids failed", failed, plan.Size()))
	}

	slog.Info("Reconciliation cycle finished",
		"create", len(plan.Create),
		"delete", len(plan.Delete),
		"update", len(plan.Update),
		"failed", failed,
		"duration", result.Duration())
	return result, nil
}

// plan fetches both indexes concurrently and compares them
func (m *defaultManager) plan(ctx context.Context) (*Plan, []string, *Error) {
	var (
		sourceIndex records.SourceIndex
		targetIndex records.TargetIndex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		idx, err := m.sources.ListIndex(gctx)
		if err != nil {
			return &Error{
				Err:     err,
				Message: fmt.Sprintf("failed to list sources: %v", err),
				Stage:   StageSourceIndex,
			}
		}
		sourceIndex = idx
		return nil
	})
	g.Go(func() error {
		idx, err := m.writer.ListIndex(gctx)
		if err != nil {
			return &Error{
				Err:     err,
				Message: fmt.Sprintf("failed to list buckets: %v", err),
				Stage:   StageTargetIndex,
			}
		}
		targetIndex = idx
		return nil
	})
	if err := g.Wait(); err != nil {
		var syncErr *Error
		if !errors.As(err, &syncErr) {
			syncErr = &Error{Err: err, Message: err.Error()}
		}
		slog.Error("Failed to plan reconciliation cycle", "stage", syncErr.Stage, "error", syncErr.Err)
		return nil, nil, syncErr
	}

	return NewPlan(sourceIndex, targetIndex, m.parsers...), Skipped(sourceIndex, targetIndex, m.parsers...), nil
}
