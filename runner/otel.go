package runner

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/amp-labs/amp-transducer/runner"

// startExecSpan covers one confined step.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller
func startExecSpan(ctx context.Context, runner string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "runner.exec",
		trace.WithAttributes(attribute.String("runner", runner)))
}

// startTaskSpan covers a pending task from submission to settlement. It is
// ended by endTaskSpan.
//
//nolint:spancheck // Span lifecycle managed by caller
func startTaskSpan(ctx context.Context, runner string, task string, kind string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "runner.task",
		trace.WithAttributes(
			attribute.String("runner", runner),
			attribute.String("task_id", task),
			attribute.String("kind", kind),
		))
}

func endTaskSpan(span trace.Span, outcome string) {
	span.SetAttributes(attribute.String("outcome", outcome))

	if outcome == outcomeTimeout || outcome == outcomeError {
		span.SetStatus(codes.Error, outcome)
	}

	span.End()
}
