package envutil_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/amp-labs/amp-transducer/envutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNegative = errors.New("must not be negative")

func override(t *testing.T, kv ...string) context.Context {
	t.Helper()

	ctx := t.Context()
	for i := 0; i+1 < len(kv); i += 2 {
		ctx = envutil.WithEnvOverride(ctx, kv[i], kv[i+1])
	}

	return ctx
}

//nolint:tparallel // Cannot use t.Parallel() with subtests that call t.Setenv()
func TestString(t *testing.T) {
	t.Run("reads the process environment", func(t *testing.T) {
		t.Setenv("ENVUTIL_TEST_STRING", "hello")

		value, err := envutil.String(t.Context(), "ENVUTIL_TEST_STRING").Value()
		require.NoError(t, err)
		assert.Equal(t, "hello", value)
	})

	t.Run("context override wins", func(t *testing.T) {
		t.Setenv("ENVUTIL_TEST_OVERRIDE", "env")

		ctx := override(t, "ENVUTIL_TEST_OVERRIDE", "ctx")
		assert.Equal(t, "ctx", envutil.String(ctx, "ENVUTIL_TEST_OVERRIDE").ValueOrElse("x"))
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		rdr := envutil.String(t.Context(), "ENVUTIL_TEST_NOT_SET")
		assert.False(t, rdr.HasValue())

		_, err := rdr.Value()
		require.ErrorIs(t, err, envutil.ErrEnvVarMissing)
		assert.Equal(t, "ENVUTIL_TEST_NOT_SET=<not set>", rdr.String())
	})

	t.Run("default", func(t *testing.T) {
		t.Parallel()

		rdr := envutil.String(t.Context(), "ENVUTIL_TEST_NOT_SET", envutil.Default("fallback"))
		assert.True(t, rdr.HasValue())
		assert.Equal(t, "fallback", rdr.ValueOrElse("other"))
	})
}

func TestBool(t *testing.T) {
	t.Parallel()

	ctx := override(t, "B_TRUE", "true", "B_ONE", " 1 ", "B_BAD", "maybe")

	assert.True(t, envutil.Bool(ctx, "B_TRUE").ValueOrElse(false))
	assert.True(t, envutil.Bool(ctx, "B_ONE").ValueOrElse(false))

	rdr := envutil.Bool(ctx, "B_BAD")
	require.Error(t, rdr.Error())

	_, err := rdr.Value()
	require.ErrorIs(t, err, envutil.ErrBadEnvVar)
	assert.False(t, rdr.ValueOrElse(false))
}

func TestInt(t *testing.T) {
	t.Parallel()

	ctx := override(t, "I_OK", "42", "I_BAD", "forty-two", "I_NEG", "-1")

	assert.Equal(t, 42, envutil.Int(ctx, "I_OK").ValueOrElse(0))
	assert.Equal(t, 7, envutil.Int(ctx, "I_BAD").ValueOrElse(7))
	assert.Equal(t, 3, envutil.Int(ctx, "I_MISSING", envutil.Default(3)).ValueOrElse(0))

	nonNegative := envutil.Validate(func(i int) error {
		if i < 0 {
			return errNegative
		}

		return nil
	})

	_, err := envutil.Int(ctx, "I_NEG", nonNegative).Value()
	require.ErrorIs(t, err, errNegative)
}

func TestDuration(t *testing.T) {
	t.Parallel()

	ctx := override(t, "D_OK", "250ms", "D_BAD", "soon")

	assert.Equal(t, 250*time.Millisecond, envutil.Duration(ctx, "D_OK").ValueOrElse(0))
	assert.Equal(t, time.Second, envutil.Duration(ctx, "D_BAD").ValueOrElse(time.Second))
}

func TestFloat64(t *testing.T) {
	t.Parallel()

	ctx := override(t, "F_OK", " 0.25 ", "F_BAD", "most")

	assert.InDelta(t, 0.25, envutil.Float64(ctx, "F_OK").ValueOrElse(1), 0)

	_, err := envutil.Float64(ctx, "F_BAD").Value()
	require.ErrorIs(t, err, envutil.ErrBadEnvVar)
}

func TestSlogLevel(t *testing.T) {
	t.Parallel()

	ctx := override(t,
		"L_DEBUG", "DEBUG",
		"L_WARN", " warning ",
		"L_ERR", "error",
		"L_BAD", "loud")

	assert.Equal(t, slog.LevelDebug, envutil.SlogLevel(ctx, "L_DEBUG").ValueOrElse(slog.LevelInfo))
	assert.Equal(t, slog.LevelWarn, envutil.SlogLevel(ctx, "L_WARN").ValueOrElse(slog.LevelInfo))
	assert.Equal(t, slog.LevelError, envutil.SlogLevel(ctx, "L_ERR").ValueOrElse(slog.LevelInfo))

	_, err := envutil.SlogLevel(ctx, "L_BAD").Value()
	require.ErrorIs(t, err, envutil.ErrBadLogLevel)
}

func TestMap(t *testing.T) {
	t.Parallel()

	ctx := override(t, "M_NAME", "runner")

	length := envutil.Map(envutil.String(ctx, "M_NAME"), func(s string) (int, error) {
		return len(s), nil
	})
	assert.Equal(t, 6, length.ValueOrElse(0))
	assert.Equal(t, "M_NAME", length.Key())

	missing := envutil.Map(envutil.String(ctx, "M_MISSING"), func(s string) (int, error) {
		return len(s), nil
	})
	assert.False(t, missing.HasValue())
}
