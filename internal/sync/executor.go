package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/toolhive-bucket-sync/internal/otel"
	"github.com/stacklok/toolhive-bucket-sync/internal/records"
	"github.com/stacklok/toolhive-bucket-sync/internal/sources"
	"github.com/stacklok/toolhive-bucket-sync/internal/status"
	"github.com/stacklok/toolhive-bucket-sync/internal/sync/writer"
	"github.com/stacklok/toolhive-bucket-sync/internal/telemetry"
	"github.com/stacklok/toolhive-bucket-sync/internal/translate"
)

// Result holds every outcome recorded for one planned id
type Result struct {
	ID       string
	Action   Action
	Outcomes []status.Outcome
}

// Success reports whether every outcome of the id succeeded
func (r Result) Success() bool {
	for _, o := range r.Outcomes {
		if !o.Success {
			return false
		}
	}
	return true
}

// ResultHandler is called from a unit as soon as that unit has completed
type ResultHandler func(ctx context.Context, result Result)

// Executor applies a plan with one independent unit of work per id
type Executor struct {
	sources     sources.Store
	writer      writer.BucketWriter
	translator  translate.Translator
	concurrency int
	now         func() time.Time
	metrics     *telemetry.SyncMetrics
	tracer      trace.Tracer
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithConcurrency bounds the number of units running at once. Zero or a
// negative value means unbounded.
func WithConcurrency(n int) ExecutorOption {
	return func(e *Executor) {
		e.concurrency = n
	}
}

// WithClock sets the clock used to timestamp outcomes
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMetrics records one operation metric per unit
func WithMetrics(m *telemetry.SyncMetrics) ExecutorOption {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithTracer records one span per unit
func WithTracer(tracer trace.Tracer) ExecutorOption {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// NewExecutor creates an Executor
func NewExecutor(
	src sources.Store, w writer.BucketWriter, tr translate.Translator, opts ...ExecutorOption,
) *Executor {
	e := &Executor{
		sources:    src,
		writer:     w,
		translator: tr,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type unit struct {
	id     string
	action Action
}

// Execute runs every planned id and returns once all units have completed.
// Results are ordered creates first, then deletes, then updates, each by id.
// Handlers are invoked from within the unit of the id they report on.
func (e *Executor) Execute(ctx context.Context, plan *Plan, handlers ...ResultHandler) []Result {
	if plan.Empty() {
		return []Result{}
	}

	units := make([]unit, 0, plan.Size())
	for _, id := range plan.Create {
		units = append(units, unit{id: id, action: ActionCreate})
	}
	for _, id := range plan.Delete {
		units = append(units, unit{id: id, action: ActionDelete})
	}
	for _, id := range plan.Update {
		units = append(units, unit{id: id, action: ActionUpdate})
	}

	results := make([]Result, len(units))

	// The group context is never cancelled because units never return an error
	var g errgroup.Group
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}
	for i, u := range units {
		g.Go(func() error {
			results[i] = e.run(ctx, u)
			for _, handle := range handlers {
				handle(ctx, results[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// run executes one unit and converts a panic into a failed outcome
func (e *Executor) run(ctx context.Context, u unit) (result Result) {
	result = Result{ID: u.id, Action: u.action}

	ctx, span := otel.StartSpan(ctx, e.tracer, "sync.unit",
		trace.WithAttributes(otel.AttrSourceID.String(u.id), otel.AttrAction.String(string(u.action))))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while applying %s: %v", u.action, r)
			slog.Error("Recovered panic in sync unit", "id", u.id, "action", u.action, "panic", r)
			result.Outcomes = append(result.Outcomes, status.Failed(e.now(), operationFor(u.action), err))
		}
		if !result.Success() {
			otel.RecordError(span, fmt.Errorf("%s %s failed", u.action, u.id))
		}
		e.metrics.RecordOperation(ctx, string(u.action), result.Success())
	}()

	switch u.action {
	case ActionCreate:
		result.Outcomes = e.create(ctx, u.id)
	case ActionDelete:
		result.Outcomes = e.delete(ctx, u.id)
	case ActionUpdate:
		result.Outcomes = e.update(ctx, u.id)
	}
	return result
}

// create fetches and translates the source, then writes the status record
// followed by the bucket. The bucket is not written if the status write failed.
func (e *Executor) create(ctx context.Context, id string) []status.Outcome {
	bucket, outcomes := e.fetchAndTranslate(ctx, id)
	if bucket == nil {
		return outcomes
	}

	if err := e.writer.StoreStatus(ctx, records.StatusFor(bucket)); err != nil {
		slog.Warn("Failed to store bucket status", "id", id, "error", err)
		return append(outcomes, status.Failed(e.now(), status.OperationStoreBucketStatus, err))
	}
	outcomes = append(outcomes, status.Succeeded(e.now(), status.OperationStoreBucketStatus,
		fmt.Sprintf("suspended set to %t", bucket.Suspended)))

	if err := e.writer.StoreBucket(ctx, bucket); err != nil {
		slog.Warn("Failed to create bucket", "id", id, "error", err)
		return append(outcomes, status.Failed(e.now(), status.OperationCreateBucket, err))
	}

	slog.Debug("Created bucket", "id", id, "fullName", bucket.FullName)
	return append(outcomes, status.Succeeded(e.now(), status.OperationCreateBucket,
		fmt.Sprintf("created bucket %s", bucket.FullName)))
}

// update sets the suspended flag first so downstream consumers do not react
// to the intermediate bucket, then replaces the bucket
func (e *Executor) update(ctx context.Context, id string) []status.Outcome {
	bucket, outcomes := e.fetchAndTranslate(ctx, id)
	if bucket == nil {
		return outcomes
	}

	if err := e.writer.UpdateSuspended(ctx, id, bucket.Suspended); err != nil {
		slog.Warn("Failed to update bucket status", "id", id, "error", err)
		outcomes = append(outcomes, status.Failed(e.now(), status.OperationUpdateBucketStatus, err))
	} else {
		outcomes = append(outcomes, status.Succeeded(e.now(), status.OperationUpdateBucketStatus,
			fmt.Sprintf("suspended set to %t", bucket.Suspended)))
	}

	if err := e.writer.StoreBucket(ctx, bucket); err != nil {
		slog.Warn("Failed to update bucket", "id", id, "error", err)
		return append(outcomes, status.Failed(e.now(), status.OperationUpdateBucket, err))
	}

	slog.Debug("Updated bucket", "id", id, "fullName", bucket.FullName)
	return append(outcomes, status.Succeeded(e.now(), status.OperationUpdateBucket,
		fmt.Sprintf("updated bucket %s", bucket.FullName)))
}

func (e *Executor) delete(ctx context.Context, id string) []status.Outcome {
	if err := e.writer.DeleteBucket(ctx, id); err != nil {
		slog.Warn("Failed to delete bucket", "id", id, "error", err)
		return []status.Outcome{status.Failed(e.now(), status.OperationDeleteBucket, err)}
	}

	slog.Debug("Deleted bucket", "id", id)
	return []status.Outcome{status.Succeeded(e.now(), status.OperationDeleteBucket,
		fmt.Sprintf("deleted bucket %s", id))}
}

// fetchAndTranslate returns a nil bucket when either step failed, with the
// failure recorded in the outcomes
func (e *Executor) fetchAndTranslate(ctx context.Context, id string) (*records.TargetRecord, []status.Outcome) {
	src, err := e.sources.Get(ctx, id)
	if err != nil {
		slog.Warn("Failed to fetch source", "id", id, "error", err)
		return nil, []status.Outcome{status.Failed(e.now(), status.OperationFetchSource, err)}
	}

	bucket, err := e.translator.Translate(src)
	if err != nil {
		slog.Warn("Failed to translate source", "id", id, "error", err)
		return nil, []status.Outcome{status.Failed(e.now(), status.OperationTranslate, err)}
	}
	return bucket, nil
}

func operationFor(action Action) string {
	switch action {
	case ActionCreate:
		return status.OperationCreateBucket
	case ActionDelete:
		return status.OperationDeleteBucket
	default:
		return status.OperationUpdateBucket
	}
}
