package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSyncMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != SyncMetricsMeterName {
			continue
		}
		for _, m := range scope.Metrics {
			found[m.Name] = m
		}
	}
	return found
}

func TestNewSyncMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewSyncMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("creates metrics with SDK provider", func(t *testing.T) {
		t.Parallel()

		mp := sdkmetric.NewMeterProvider()
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewSyncMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)
		assert.NotNil(t, metrics.cycleDuration)
		assert.NotNil(t, metrics.operationsTotal)
		assert.NotNil(t, metrics.leader)
		assert.NotNil(t, metrics.leaderChanges)
	})
}

func TestSyncMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var metrics *SyncMetrics
	ctx := context.Background()

	// Should not panic
	metrics.RecordCycleDuration(ctx, "role", time.Second, "Complete")
	metrics.RecordOperation(ctx, "create", true)
	metrics.RecordLeader(ctx, "role", true)
	metrics.RecordLeaderChange(ctx, "role")
}

func TestSyncMetrics_Record(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewSyncMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordCycleDuration(ctx, "sources", 1500*time.Millisecond, "Complete")
	metrics.RecordOperation(ctx, "create", true)
	metrics.RecordOperation(ctx, "create", true)
	metrics.RecordOperation(ctx, "delete", false)
	metrics.RecordLeader(ctx, "sources", true)
	metrics.RecordLeaderChange(ctx, "sources")

	found := collectSyncMetrics(t, reader)

	hist, ok := found["sync_cycle_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok, "expected histogram data type")
	require.Len(t, hist.DataPoints, 1)
	assert.InDelta(t, 1.5, hist.DataPoints[0].Sum, 0.001)

	ops, ok := found["sync_operations_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected sum data type")
	var total int64
	for _, dp := range ops.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
	assert.Len(t, ops.DataPoints, 2)

	gauge, ok := found["sync_leader"].Data.(metricdata.Gauge[int64])
	require.True(t, ok, "expected gauge data type")
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(1), gauge.DataPoints[0].Value)

	changes, ok := found["sync_leader_changes_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected sum data type")
	require.Len(t, changes.DataPoints, 1)
	assert.Equal(t, int64(1), changes.DataPoints[0].Value)
}
