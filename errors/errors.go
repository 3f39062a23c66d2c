// Package errors holds error helpers shared by the engine packages: the panic
// recovery sentinel and a small accumulator for joining cleanup errors.
package errors

import (
	"errors"
	"fmt"
)

// ErrPanicRecovery marks an error that was built from a recovered panic.
var ErrPanicRecovery = errors.New("recovered from panic")

// FromPanic converts a recovered panic value and optional stack trace into an
// error wrapping ErrPanicRecovery. If the panic value is itself an error, it
// stays reachable through errors.Is / errors.As. Returns nil for a nil value.
func FromPanic(recovered any, stack []byte) error {
	if recovered == nil {
		return nil
	}

	var err error

	if e, ok := recovered.(error); ok {
		err = fmt.Errorf("%w: %w", ErrPanicRecovery, e)
	} else {
		err = fmt.Errorf("%w: %v", ErrPanicRecovery, recovered)
	}

	if stack != nil {
		return fmt.Errorf("%w\nstack trace:\n%s", err, string(stack))
	}

	return err
}

// Collection is a thread-unsafe utility for accumulating multiple errors.
// Use this when you need to collect errors from multiple operations and return them together.
type Collection struct {
	errors []error
}

// Add appends an error to the collection. Nil errors are automatically ignored.
func (c *Collection) Add(err error) {
	if err != nil {
		c.errors = append(c.errors, err)
	}
}

// HasError returns true if the collection contains at least one error.
func (c *Collection) HasError() bool {
	return len(c.errors) > 0
}

// GetError returns the collected errors as a single error.
// Returns nil if the collection is empty, the single error if there's only one,
// or a joined error (using errors.Join) if there are multiple errors.
func (c *Collection) GetError() error {
	switch len(c.errors) {
	case 0:
		return nil
	case 1:
		return c.errors[0]
	default:
		return errors.Join(c.errors...)
	}
}
