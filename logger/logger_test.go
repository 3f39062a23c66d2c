package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"strings"
	"testing"

	"github.com/amp-labs/amp-transducer/envutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errAnnotated = errors.New("annotated failure")

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any

	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))

		out = append(out, entry)
	}

	return out
}

func TestLogger(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		Subsystem: "test",
		JSON:      true,
		Output:    &buf,
	})

	Get().Info("default subsystem")
	Get(WithSubsystem(t.Context(), "overridden")).Info("overridden subsystem")
	Get(With(With(t.Context(), "runner", "counter"), "task", "t1")).Info("with values")
	Get(WithMuted(t.Context(), true)).Info("muted")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "test", lines[0]["subsystem"])
	assert.Equal(t, GetPodName(), lines[0]["pod"])
	assert.Equal(t, "overridden", lines[1]["subsystem"])
	assert.Equal(t, "counter", lines[2]["runner"])
	assert.Equal(t, "t1", lines[2]["task"])
}

func TestAnnotatedErrors(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		Subsystem: "test",
		JSON:      true,
		Output:    &buf,
	})

	err := AnnotateError(errAnnotated, "task_id", "abc", "attempt", 2)
	require.ErrorIs(t, err, errAnnotated)
	assert.Equal(t, errAnnotated.Error(), err.Error())
	assert.NoError(t, AnnotateError(nil, "k", "v"))

	Get().Error("task failed", "error", err)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "annotated failure", lines[0]["error"])
	assert.Equal(t, "abc", lines[0]["task_id"])
	assert.InDelta(t, 2, lines[0]["attempt"], 0)
}

func TestConfigureLogging(t *testing.T) { //nolint:paralleltest
	ctx := envutil.WithEnvOverride(context.Background(), "LOG_JSON", "true")
	ctx = envutil.WithEnvOverride(ctx, "LOG_LEVEL", "error")

	logger := ConfigureLogging(ctx, "configured")

	assert.True(t, logger.Enabled(ctx, slog.LevelError))
	assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.Equal(t, "configured", GetSubsystem(context.Background()))
}

func TestLegacy(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		Subsystem:   "test",
		JSON:        true,
		MinLevel:    slog.LevelDebug,
		LegacyLevel: slog.LevelInfo,
		Output:      &buf,
	})

	log.Println("legacy line")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "legacy line", lines[0]["msg"])
}
