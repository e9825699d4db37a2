package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/toolhive-bucket-sync/sync"
)

// SyncMetrics holds the OpenTelemetry instruments for reconciliation and leadership
type SyncMetrics struct {
	cycleDuration   metric.Float64Histogram
	operationsTotal metric.Int64Counter
	leader          metric.Int64Gauge
	leaderChanges   metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	cycleDuration, err := meter.Float64Histogram(
		"sync_cycle_duration_seconds",
		metric.WithDescription("Duration of reconciliation cycles in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		return nil, err
	}

	operationsTotal, err := meter.Int64Counter(
		"sync_operations_total",
		metric.WithDescription("Number of per-id operations applied, by action and result"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	leader, err := meter.Int64Gauge(
		"sync_leader",
		metric.WithDescription("1 when this instance holds the synchronizer role, 0 otherwise"),
	)
	if err != nil {
		return nil, err
	}

	leaderChanges, err := meter.Int64Counter(
		"sync_leader_changes_total",
		metric.WithDescription("Number of times this instance became leader"),
		metric.WithUnit("{change}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		cycleDuration:   cycleDuration,
		operationsTotal: operationsTotal,
		leader:          leader,
		leaderChanges:   leaderChanges,
	}, nil
}

// RecordCycleDuration records the duration and resulting phase of a cycle
func (m *SyncMetrics) RecordCycleDuration(ctx context.Context, role string, duration time.Duration, phase string) {
	if m == nil || m.cycleDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("role", role),
		attribute.String("phase", phase),
	}

	m.cycleDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordOperation counts one per-id operation
func (m *SyncMetrics) RecordOperation(ctx context.Context, action string, success bool) {
	if m == nil || m.operationsTotal == nil {
		return
	}

	result := "success"
	if !success {
		result = "error"
	}
	attrs := []attribute.KeyValue{
		attribute.String("action", action),
		attribute.String("result", result),
	}

	m.operationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordLeader records whether this instance currently holds the role
func (m *SyncMetrics) RecordLeader(ctx context.Context, role string, isLeader bool) {
	if m == nil || m.leader == nil {
		return
	}

	var value int64
	if isLeader {
		value = 1
	}
	m.leader.Record(ctx, value, metric.WithAttributes(attribute.String("role", role)))
}

// RecordLeaderChange counts a transition to leader
func (m *SyncMetrics) RecordLeaderChange(ctx context.Context, role string) {
	if m == nil || m.leaderChanges == nil {
		return
	}
	m.leaderChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
}
