package runner

import (
	"context"
	"testing"

	"github.com/amp-labs/amp-transducer/runnertest"
	"github.com/amp-labs/amp-transducer/transition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))

	oldProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		otel.SetTracerProvider(oldProvider)
		_ = tp.Shutdown(context.Background())
	})

	return exporter
}

func spanAttributes(span tracetest.SpanStub) map[attribute.Key]string {
	attrs := make(map[attribute.Key]string, len(span.Attributes))
	for _, kv := range span.Attributes {
		attrs[kv.Key] = kv.Value.Emit()
	}

	return attrs
}

//nolint:paralleltest // Test modifies global OTEL tracer provider
func TestSpans(t *testing.T) {
	exporter := setupTestTracer(t)

	s := NewBlocking[int, *rec](0, WithName("traced"))
	r := runnertest.NewRecorder[int]()

	s.Start(r)
	s.Exec(r, transition.PureAsync[int, *rec](func(context.Context) (act, error) {
		return inc(), nil
	}))

	require.Equal(t, 1, current(s))

	var execs, tasks []tracetest.SpanStub

	for _, span := range exporter.GetSpans() {
		if spanAttributes(span)["runner"] != "traced" {
			continue
		}

		switch span.Name {
		case "runner.exec":
			execs = append(execs, span)
		case "runner.task":
			tasks = append(tasks, span)
		}
	}

	require.Len(t, tasks, 1)
	require.Len(t, execs, 2, "the submitting step and the step applying the result")

	attrs := spanAttributes(tasks[0])
	assert.Equal(t, "Async", attrs["kind"])
	assert.Equal(t, outcomeResult, attrs["outcome"])
	assert.NotEmpty(t, attrs["task_id"])

	parents := map[string]bool{}
	for _, span := range execs {
		parents[span.SpanContext.SpanID().String()] = true
	}

	assert.True(t, parents[tasks[0].Parent.SpanID().String()], "task spans are children of the step that started them")
}
