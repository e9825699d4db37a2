package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/stacklok/toolhive-bucket-sync/internal/records"
	"github.com/stacklok/toolhive-bucket-sync/internal/sources"
	"github.com/stacklok/toolhive-bucket-sync/internal/sync/writer"
	"github.com/stacklok/toolhive-bucket-sync/internal/translate"
)

func newRecordingProvider(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func TestManager_CycleSpans(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := sources.NewMemoryStore()
	src.Put(sourceDoc("A", 10, "Alpha"))

	w := writer.NewMemoryWriter()
	require.NoError(t, w.StoreBucket(ctx, &records.TargetRecord{ID: "C", FullName: "buckets/C", Modified: at(1)}))

	exporter, tp := newRecordingProvider(t)
	mgr := NewManager(src, w, translate.NewSourceTranslator(),
		WithClock(fixedClock), WithTracer(tp.Tracer("sync-test")))

	_, syncErr := mgr.RunCycle(ctx)
	require.Nil(t, syncErr)

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)

	var cycle tracetest.SpanStub
	units := map[string]tracetest.SpanStub{}
	for _, s := range spans {
		switch s.Name {
		case "sync.cycle":
			cycle = s
		case "sync.unit":
			for _, attr := range s.Attributes {
				if attr.Key == "sync.source_id" {
					units[attr.Value.AsString()] = s
				}
			}
		}
	}
	require.True(t, cycle.SpanContext.IsValid(), "cycle span recorded")
	require.Len(t, units, 2)
	for id, unit := range units {
		assert.Equal(t, cycle.SpanContext.SpanID(), unit.Parent.SpanID(), "unit %s is a child of the cycle", id)
	}

	counts := map[string]int64{}
	for _, attr := range cycle.Attributes {
		counts[string(attr.Key)] = attr.Value.AsInt64()
	}
	assert.Equal(t, int64(1), counts["sync.plan.create"])
	assert.Equal(t, int64(1), counts["sync.plan.delete"])
	assert.Equal(t, int64(0), counts["sync.plan.update"])
}

func TestManager_WithoutTracerLeavesCallerSpanOpen(t *testing.T) {
	t.Parallel()

	exporter, tp := newRecordingProvider(t)
	ctx, parent := tp.Tracer("caller").Start(context.Background(), "caller")

	src := sources.NewMemoryStore()
	src.Put(sourceDoc("A", 10, "Alpha"))
	mgr := newTestManager(src, writer.NewMemoryWriter())

	_, syncErr := mgr.RunCycle(ctx)
	require.Nil(t, syncErr)

	assert.Empty(t, exporter.GetSpans(), "caller span is still open after the cycle")
	assert.True(t, parent.IsRecording())

	parent.End()
	require.Len(t, exporter.GetSpans(), 1)
}
