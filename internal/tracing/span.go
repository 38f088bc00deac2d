package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"saturate/internal/runner"
	"saturate/internal/sweep"
)

// StartRunSpan starts a span covering one throughput run.
func StartRunSpan(ctx context.Context, tracer trace.Tracer, target string, workers int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "saturate.run",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("saturate.target", target),
		attribute.Int("saturate.workers", workers),
	)
	return ctx, span
}

// StartSweepSpan starts a span covering a whole concurrency sweep.
func StartSweepSpan(ctx context.Context, tracer trace.Tracer, target string, start, max, step int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "saturate.sweep",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("saturate.target", target),
		attribute.Int("saturate.sweep.start", start),
		attribute.Int("saturate.sweep.max", max),
		attribute.Int("saturate.sweep.step", step),
	)
	return ctx, span
}

// EndRunSpan finishes a run span, attaching the run's aggregates on success.
func EndRunSpan(span trace.Span, res *runner.Result, err error) {
	if res != nil {
		span.SetAttributes(
			attribute.Int64("saturate.total_bytes", res.TotalBytes),
			attribute.Float64("saturate.avg_throughput_mbps", res.AvgThroughputMBps),
		)
	}
	endSpan(span, err)
}

// EndSweepSpan finishes a sweep span, attaching the sweep outcome on success.
func EndSweepSpan(span trace.Span, res *sweep.Result, err error) {
	if res != nil {
		span.SetAttributes(
			attribute.Int("saturate.sweep.points", len(res.Points)),
			attribute.Int("saturate.sweep.best_workers", res.BestWorkers),
			attribute.Float64("saturate.sweep.best_throughput_mbps", res.BestThroughputMBps),
			attribute.String("saturate.sweep.stop_reason", string(res.StopReason)),
		)
	}
	endSpan(span, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
