package runner

import (
	"errors"
	"fmt"
	"time"

	"github.com/amp-labs/amp-transducer/transition"
	"github.com/google/uuid"
)

var (
	// ErrTimeout is wrapped by every TimeoutError.
	ErrTimeout = errors.New("pending task timed out")

	// ErrOrphanedFault marks a fault that had no attached receiver to go to.
	ErrOrphanedFault = errors.New("fault without attached receiver")

	// ErrSubmit is raised when the worker or the joiner refuses a task.
	ErrSubmit = errors.New("task submission failed")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid runner configuration")
)

// TimeoutError is raised when a pending task misses its deadline.
type TimeoutError struct {
	TaskID  uuid.UUID
	Kind    transition.Kind
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s task %s timed out after %s", e.Kind, e.TaskID, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}
