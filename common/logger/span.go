package logger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "daskann"

// SpanContext pairs a started span with the context that carries it.
//
//	sc := logger.StartSpan(ctx, "lifecycle.close", trace.WithAttributes(...))
//	defer sc.End()
//	ctx = sc.Context()
type SpanContext struct {
	ctx  context.Context
	span trace.Span
}

// StartSpan starts a child span of whatever span ctx carries. When the
// context has DiscussionID or SweepRunID log fields they are copied onto the span.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) *SpanContext {
	fields := GetLogFields(ctx)
	var attrs []attribute.KeyValue
	if fields.DiscussionID != nil {
		attrs = append(attrs, attribute.Int64("daskann.discussion_id", *fields.DiscussionID))
	}
	if fields.SweepRunID != nil {
		attrs = append(attrs, attribute.String("daskann.sweep_run_id", *fields.SweepRunID))
	}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	return &SpanContext{ctx: ctx, span: span}
}

func (sc *SpanContext) Context() context.Context {
	return sc.ctx
}

// End completes the span. Subsequent calls are no-ops.
func (sc *SpanContext) End() {
	if sc.span != nil {
		sc.span.End()
	}
}

// RecordError records err on the span and marks the span as failed.
func (sc *SpanContext) RecordError(err error) {
	if sc.span != nil && err != nil {
		sc.span.RecordError(err)
		sc.span.SetStatus(codes.Error, err.Error())
	}
}

func (sc *SpanContext) Span() trace.Span {
	return sc.span
}
