package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPanic(t *testing.T) {
	t.Parallel()

	t.Run("returns nil for nil panic value", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, FromPanic(nil, nil))
	})

	t.Run("wraps error panic value", func(t *testing.T) {
		t.Parallel()

		original := errors.New("boom") //nolint:err113
		err := FromPanic(original, nil)

		require.ErrorIs(t, err, ErrPanicRecovery)
		require.ErrorIs(t, err, original)
		assert.Equal(t, "recovered from panic: boom", err.Error())
	})

	t.Run("formats non-error panic value", func(t *testing.T) {
		t.Parallel()

		err := FromPanic(42, nil)

		require.ErrorIs(t, err, ErrPanicRecovery)
		assert.Equal(t, "recovered from panic: 42", err.Error())
	})

	t.Run("appends the stack trace", func(t *testing.T) {
		t.Parallel()

		err := FromPanic("bad", []byte("goroutine 1 [running]"))

		require.ErrorIs(t, err, ErrPanicRecovery)
		assert.Contains(t, err.Error(), "stack trace:\ngoroutine 1 [running]")
	})
}

func TestCollection(t *testing.T) {
	t.Parallel()

	t.Run("empty collection has no error", func(t *testing.T) {
		t.Parallel()

		c := &Collection{}
		c.Add(nil)

		assert.False(t, c.HasError())
		assert.NoError(t, c.GetError())
	})

	t.Run("single error is returned as is", func(t *testing.T) {
		t.Parallel()

		c := &Collection{}
		err1 := errors.New("error 1") //nolint:err113

		c.Add(err1)

		assert.True(t, c.HasError())
		assert.Equal(t, err1, c.GetError())
	})

	t.Run("multiple errors are joined", func(t *testing.T) {
		t.Parallel()

		c := &Collection{}
		err1 := errors.New("error 1") //nolint:err113
		err2 := errors.New("error 2") //nolint:err113

		c.Add(err1)
		c.Add(nil)
		c.Add(err2)

		err := c.GetError()
		require.ErrorIs(t, err, err1)
		require.ErrorIs(t, err, err2)
	})
}
