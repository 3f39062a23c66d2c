// Package runnertest provides receivers and hooks for testing code that runs
// on a runner.Scheduler.
package runnertest

import (
	"slices"
	"sync"
)

// Exit is one recorded OnExit call.
type Exit[S any] struct {
	From S
	To   S
}

// Recorder is a receiver that records everything it is told. It is safe to
// read from any goroutine while a scheduler drives it.
type Recorder[S any] struct {
	mu     sync.Mutex
	states []S
	exits  []Exit[S]
	errs   []error
}

// NewRecorder returns an empty recorder.
func NewRecorder[S any]() *Recorder[S] {
	return &Recorder[S]{}
}

func (r *Recorder[S]) OnEnter(state S) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states = append(r.states, state)
}

func (r *Recorder[S]) OnExit(old, next S) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.exits = append(r.exits, Exit[S]{From: old, To: next})
}

func (r *Recorder[S]) Handle(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errs = append(r.errs, err)
}

// States returns the entered states in order.
func (r *Recorder[S]) States() []S {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.states)
}

// Last returns the most recently entered state.
func (r *Recorder[S]) Last() (S, bool) { //nolint:ireturn
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.states) == 0 {
		var zero S

		return zero, false
	}

	return r.states[len(r.states)-1], true
}

// Exits returns the recorded exits in order.
func (r *Recorder[S]) Exits() []Exit[S] {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.exits)
}

// Errors returns the handled errors in order.
func (r *Recorder[S]) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.errs)
}

// Count returns the number of OnEnter calls.
func (r *Recorder[S]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.states)
}

// Reset forgets everything recorded so far.
func (r *Recorder[S]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states = nil
	r.exits = nil
	r.errs = nil
}
