// Package tracing wraps OpenTelemetry spans around pipeline stages.
//
// No exporter is configured here. Spans go to whatever TracerProvider the
// process installs with otel.SetTracerProvider, the no-op one by default.
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/clusterrank/pkg/metrics"
)

// TracerName identifies spans created by this module.
const TracerName = "clusterrank"

// StartSpan creates a new span for a general operation.
// Returns the new context and a function to end the span.
//
//	ctx, end := tracing.StartSpan(ctx, "rank")
//	defer func() { end(err) }()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := otel.Tracer(TracerName).Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// StartStage is StartSpan for a pipeline stage. Ending it also records the
// stage duration metric.
func StartStage(ctx context.Context, stage string) (context.Context, func(error)) {
	start := time.Now()
	ctx, end := StartSpan(ctx, "stage "+stage, attribute.String("stage", stage))
	return ctx, func(err error) {
		metrics.ObserveStageDuration(stage, time.Since(start).Seconds())
		end(err)
	}
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
