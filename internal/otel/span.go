// Package otel provides OpenTelemetry span helpers for the bucket synchronizer.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Common attribute keys for business context used across the application.
// Using shared keys ensures consistent attribute naming in traces.
const (
	AttrRole        = attribute.Key("sync.role")
	AttrSourceID    = attribute.Key("sync.source_id")
	AttrAction      = attribute.Key("sync.action")
	AttrCreateCount = attribute.Key("sync.plan.create")
	AttrDeleteCount = attribute.Key("sync.plan.delete")
	AttrUpdateCount = attribute.Key("sync.plan.update")
	AttrFailedCount = attribute.Key("sync.failed")
)

// StartSpan starts a new span if the tracer is non-nil. Without a tracer it
// returns a non-recording span, never the span already in ctx, so callers may
// always end what they get.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, noop.Span{}
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records an error on a span and sets the span status to error.
// It safely handles nil spans and nil errors.
// Note: The status description is intentionally generic to prevent sensitive
// information (e.g., SQL queries, connection strings) from appearing in trace
// status. The full error details are still available via span events for debugging.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
