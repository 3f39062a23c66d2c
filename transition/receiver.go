// Package transition defines the building blocks of a command-driven state
// machine: commands that say what should happen next, the actions that
// compute them from the current state, and the receiver that is told about
// the outcome.
//
// Nothing in this package executes anything. The runner package interprets
// commands against owned state.
package transition

import (
	"errors"
	"fmt"
)

var (
	// ErrUnhandled is the panic value of BaseReceiver.Handle.
	ErrUnhandled = errors.New("unhandled transition error")

	// ErrTransitionFault marks a panic recovered while an action body ran.
	ErrTransitionFault = errors.New("transition fault")
)

// Receiver is told about state transitions and errors. All calls happen in
// the scheduler's confined context, never concurrently.
type Receiver[S any] interface {
	// OnEnter is called after the state was entered or re-entered.
	OnEnter(state S)
	// OnExit is called right before old is replaced by next.
	OnExit(old, next S)
	// Handle receives raised errors, timeouts and transition faults.
	Handle(err error)
}

// BaseReceiver provides the default OnExit and Handle. Embed it and
// implement OnEnter.
type BaseReceiver[S any] struct{}

// OnExit does nothing.
func (BaseReceiver[S]) OnExit(S, S) {}

// Handle panics with an error wrapping ErrUnhandled and err.
func (BaseReceiver[S]) Handle(err error) {
	panic(fmt.Errorf("%w: %w", ErrUnhandled, err))
}
