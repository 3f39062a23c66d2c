// Package executor provides the background execution services a scheduler
// submits work to: a synchronous test double, one goroutine per task and a
// bounded pond worker pool.
package executor

import (
	"errors"
)

// ErrStopped is returned by Go once an executor no longer accepts work.
var ErrStopped = errors.New("executor stopped")

// Executor runs tasks. Go must not block on the task itself, except for
// Inline, which runs it before returning.
type Executor interface {
	Go(task func()) error
}

// Func adapts a function to Executor.
type Func func(task func()) error

// Go calls f(task).
func (f Func) Go(task func()) error {
	return f(task)
}

type inline struct{}

func (inline) Go(task func()) error {
	task()

	return nil
}

type goroutine struct{}

func (goroutine) Go(task func()) error {
	go task()

	return nil
}

var (
	// Inline runs each task synchronously on the calling goroutine. It makes
	// scheduling deterministic under test.
	Inline Executor = inline{} //nolint:gochecknoglobals

	// Goroutine starts a new goroutine per task.
	Goroutine Executor = goroutine{} //nolint:gochecknoglobals
)
