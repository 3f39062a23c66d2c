package future

import (
	"go.uber.org/atomic"
)

// Promise represents the write-only side of an asynchronous computation.
//
// Key guarantees:
//   - A promise can only be fulfilled once; later calls report false
//   - Fulfilment is thread-safe and can happen from any goroutine
//   - Fulfilling a promise unblocks all goroutines waiting on the future
type Promise[T any] struct {
	future    *Future[T]
	fulfilled *atomic.Bool
}

// fulfill stores the result, closes the ready channel and hands the result to
// every registered callback. Only the first call does anything.
func (p *Promise[T]) fulfill(result Result[T]) bool {
	if !p.fulfilled.CompareAndSwap(false, true) {
		return false
	}

	p.future.once.Do(func() {
		p.future.result = result

		// Held while closing so OnResult cannot register a callback that
		// would be missed by the collection below.
		p.future.mu.Lock()
		close(p.future.resultReady)

		callbacks := p.future.callbacks
		p.future.callbacks = nil
		p.future.mu.Unlock()

		for _, callback := range callbacks {
			invokeCallback("OnResult", callback, result)
		}
	})

	return true
}

// Fulfilled returns true once the promise has been completed.
func (p *Promise[T]) Fulfilled() bool {
	return p.fulfilled.Load()
}

// Success fulfils the promise with a value. It returns false if the promise
// was already fulfilled.
func (p *Promise[T]) Success(value T) bool {
	return p.fulfill(Result[T]{Value: value})
}

// Failure fulfils the promise with an error. It returns false if the promise
// was already fulfilled.
func (p *Promise[T]) Failure(err error) bool {
	return p.fulfill(Result[T]{Error: err})
}

// Complete fulfils the promise with a (value, error) pair, matching Go's
// usual return convention: a non-nil error wins over the value.
func (p *Promise[T]) Complete(value T, err error) bool {
	if err != nil {
		return p.Failure(err)
	}

	return p.Success(value)
}
