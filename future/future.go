// Package future provides a one-shot Future/Promise pair.
//
// A Future is the read side of a value that will be produced exactly once.
// The Promise is the write side: the first call to Success, Failure or
// Complete fulfils the future and every later call is ignored. Waiters can
// block (Await, AwaitContext), select on Done, or peek with Poll.
//
// The runner package uses futures as the rendezvous between a background
// task (or an external callback) and the joiner that waits for it.
package future

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/amp-labs/amp-transducer/errors"
	"go.uber.org/atomic"
)

// Result is the outcome of a future: either a value or an error.
type Result[T any] struct {
	Value T
	Error error
}

// IsSuccess returns true if the result carries no error.
func (r Result[T]) IsSuccess() bool {
	return r.Error == nil
}

// Get returns the value and error as a Go-style pair. The value is the zero
// value of T when the result is a failure.
func (r Result[T]) Get() (T, error) { //nolint:ireturn
	if r.Error != nil {
		var zero T

		return zero, r.Error
	}

	return r.Value, nil
}

// Future is the read-only side of an asynchronous computation.
type Future[T any] struct {
	once        sync.Once
	resultReady chan struct{}
	result      Result[T]

	mu        sync.Mutex
	callbacks []func(Result[T])
}

// New creates an unfulfilled future together with the promise that completes it.
func New[T any]() (*Future[T], *Promise[T]) {
	fut := &Future[T]{
		resultReady: make(chan struct{}),
	}

	return fut, &Promise[T]{
		future:    fut,
		fulfilled: atomic.NewBool(false),
	}
}

// Go runs f in a new goroutine and returns a future for its result. A panic
// inside f fails the future with an error wrapping errors.ErrPanicRecovery.
func Go[T any](f func() (T, error)) *Future[T] {
	fut, promise := New[T]()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				promise.Failure(errors.FromPanic(r, debug.Stack()))
			}
		}()

		promise.Complete(f())
	}()

	return fut
}

// Done returns a channel that is closed once the future is fulfilled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.resultReady
}

// Poll returns the result without blocking. The boolean is false if the
// future has not been fulfilled yet.
func (f *Future[T]) Poll() (Result[T], bool) {
	select {
	case <-f.resultReady:
		return f.result, true
	default:
		return Result[T]{}, false
	}
}

// Await blocks until the future is fulfilled and returns its value and error.
func (f *Future[T]) Await() (T, error) { //nolint:ireturn
	<-f.resultReady

	return f.result.Get()
}

// AwaitContext blocks until the future is fulfilled or ctx is done. When ctx
// wins, the context's error is returned and the future is left untouched, so
// it can still be awaited or observed later.
func (f *Future[T]) AwaitContext(ctx context.Context) (T, error) { //nolint:ireturn
	select {
	case <-f.resultReady:
		return f.result.Get()
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}

// OnResult registers a callback that receives the result once it is
// available. If the future is already fulfilled the callback is scheduled
// immediately. Callbacks run on their own goroutine; panics are logged.
func (f *Future[T]) OnResult(callback func(Result[T])) {
	if callback == nil {
		return
	}

	f.mu.Lock()

	select {
	case <-f.resultReady:
		f.mu.Unlock()
		invokeCallback("OnResult", callback, f.result)

		return
	default:
	}

	f.callbacks = append(f.callbacks, callback)
	f.mu.Unlock()
}
