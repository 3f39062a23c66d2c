package transition

import (
	"github.com/amp-labs/amp-transducer/future"
)

// Continuation resumes a deferred command. Only the first call to Resume, Ok
// or Fail has any effect; the rest report false. It is safe to call from any
// goroutine.
type Continuation[S, E any] struct {
	promise *future.Promise[Action[S, E]]
}

// NewContinuation returns a continuation and the future it completes.
func NewContinuation[S, E any]() (*Continuation[S, E], *future.Future[Action[S, E]]) {
	fut, promise := future.New[Action[S, E]]()

	return &Continuation[S, E]{promise: promise}, fut
}

// Resume hands the next action to the scheduler.
func (c *Continuation[S, E]) Resume(action Action[S, E]) bool {
	if action == nil {
		action = PureCommand(Noop[S, E]())
	}

	return c.promise.Success(action)
}

// Ok is Resume(Pure(state)).
func (c *Continuation[S, E]) Ok(state S) bool {
	return c.Resume(Pure[S, E](state))
}

// Fail is Resume(PureCommand(Raise(err))).
func (c *Continuation[S, E]) Fail(err error) bool {
	return c.Resume(PureCommand(Raise[S, E](err)))
}

// Resumed reports whether the continuation has been used.
func (c *Continuation[S, E]) Resumed() bool {
	return c.promise.Fulfilled()
}
