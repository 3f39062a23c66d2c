package transition

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Thunk is background work. It runs on the worker and returns the action to
// apply once it is done. A returned error is raised to the receiver. The
// context is cancelled when the task times out or the scheduler is closed.
type Thunk[S, E any] func(ctx context.Context) (Action[S, E], error)

// step is a single primitive command. Only the field matching kind is set.
type step[S, E any] struct {
	kind     Kind
	state    S
	err      error
	action   Action[S, E]
	thunk    Thunk[S, E]
	callback func(*Continuation[S, E])
}

// Command describes what the scheduler should do after an action ran. It is a
// value: building one has no side effects.
//
// Commands compose with Then and After into a flat, ordered sequence of
// primitives. Composition is associative and the zero value, Noop, is the
// identity on both sides.
type Command[S, E any] struct {
	steps []step[S, E]
}

func single[S, E any](s step[S, E]) Command[S, E] {
	return Command[S, E]{steps: []step[S, E]{s}}
}

// Noop requests nothing. It is the zero value of Command.
func Noop[S, E any]() Command[S, E] {
	return Command[S, E]{}
}

// Reenter notifies the receiver with the current state without replacing it.
func Reenter[S, E any]() Command[S, E] {
	return single(step[S, E]{kind: KindReenter})
}

// Enter replaces the state with next and notifies the receiver.
func Enter[S, E any](next S) Command[S, E] {
	return single(step[S, E]{kind: KindEnter, state: next})
}

// EnterMany enters each state in order, notifying the receiver every time.
func EnterMany[S, E any](states ...S) Command[S, E] {
	cmd := Noop[S, E]()
	for _, s := range states {
		cmd = cmd.Then(Enter[S, E](s))
	}

	return cmd
}

// Raise hands err to the receiver. Steps composed after a Raise do not run.
func Raise[S, E any](err error) Command[S, E] {
	return single(step[S, E]{kind: KindRaise, err: err})
}

// Forward applies action to the current state within the same step. A nil
// action is a Noop.
func Forward[S, E any](action Action[S, E]) Command[S, E] {
	if action == nil {
		return Noop[S, E]()
	}

	return single(step[S, E]{kind: KindForward, action: action})
}

// Async runs thunk on the worker and applies the action it returns. A nil
// thunk is a Noop.
func Async[S, E any](thunk Thunk[S, E]) Command[S, E] {
	if thunk == nil {
		return Noop[S, E]()
	}

	return single(step[S, E]{kind: KindAsync, thunk: thunk})
}

// Defer calls callback in the confined context with a continuation. The
// scheduler waits for the continuation to be resumed exactly as it waits for
// an Async thunk. A nil callback is a Noop.
func Defer[S, E any](callback func(*Continuation[S, E])) Command[S, E] {
	if callback == nil {
		return Noop[S, E]()
	}

	return single(step[S, E]{kind: KindDefer, callback: callback})
}

// EnterThen enters next, then runs thunk in the background.
func EnterThen[S, E any](next S, thunk Thunk[S, E]) Command[S, E] {
	return Enter[S, E](next).ThenAsync(thunk)
}

// EnterThenDefer enters next, then defers to callback.
func EnterThenDefer[S, E any](next S, callback func(*Continuation[S, E])) Command[S, E] {
	return Enter[S, E](next).Then(Defer(callback))
}

// ReenterThen notifies the receiver, then runs thunk in the background.
func ReenterThen[S, E any](thunk Thunk[S, E]) Command[S, E] {
	return Reenter[S, E]().ThenAsync(thunk)
}

// ReenterThenDefer notifies the receiver, then defers to callback.
func ReenterThenDefer[S, E any](callback func(*Continuation[S, E])) Command[S, E] {
	return Reenter[S, E]().Then(Defer(callback))
}

// Then returns a command that runs c, then next.
func (c Command[S, E]) Then(next Command[S, E]) Command[S, E] {
	switch {
	case len(next.steps) == 0:
		return c
	case len(c.steps) == 0:
		return next
	default:
		return Command[S, E]{steps: slices.Concat(c.steps, next.steps)}
	}
}

// ThenAction is c.Then(Forward(action)).
func (c Command[S, E]) ThenAction(action Action[S, E]) Command[S, E] {
	return c.Then(Forward(action))
}

// ThenAsync is c.Then(Async(thunk)).
func (c Command[S, E]) ThenAsync(thunk Thunk[S, E]) Command[S, E] {
	return c.Then(Async(thunk))
}

// After returns a command that runs prev, then c.
func (c Command[S, E]) After(prev Command[S, E]) Command[S, E] {
	return prev.Then(c)
}

// AfterAction is Forward(action).Then(c).
func (c Command[S, E]) AfterAction(action Action[S, E]) Command[S, E] {
	return Forward(action).Then(c)
}

// AfterAsync is Async(thunk).Then(c).
func (c Command[S, E]) AfterAsync(thunk Thunk[S, E]) Command[S, E] {
	return Async(thunk).Then(c)
}

// IsNoop reports whether the command does nothing.
func (c Command[S, E]) IsNoop() bool {
	return len(c.steps) == 0
}

// Len returns the number of primitive steps.
func (c Command[S, E]) Len() int {
	return len(c.steps)
}

// Steps splits a composed command into its primitives, in execution order.
func (c Command[S, E]) Steps() []Command[S, E] {
	out := make([]Command[S, E], len(c.steps))
	for i, s := range c.steps {
		out[i] = single(s)
	}

	return out
}

// All yields the primitives of c in execution order without copying them
// into a slice.
func (c Command[S, E]) All() iter.Seq[Command[S, E]] {
	return func(yield func(Command[S, E]) bool) {
		for _, s := range c.steps {
			if !yield(single(s)) {
				return
			}
		}
	}
}

// Kind returns the kind of the first step, or KindNoop for an empty command.
func (c Command[S, E]) Kind() Kind {
	if len(c.steps) == 0 {
		return KindNoop
	}

	return c.steps[0].kind
}

// Kinds returns the kind of every step in order.
func (c Command[S, E]) Kinds() []Kind {
	out := make([]Kind, len(c.steps))
	for i, s := range c.steps {
		out[i] = s.kind
	}

	return out
}

// State returns the target state of a leading Enter step.
func (c Command[S, E]) State() (S, bool) { //nolint:ireturn
	if c.Kind() != KindEnter {
		var zero S

		return zero, false
	}

	return c.steps[0].state, true
}

// Err returns the error of a leading Raise step, or nil.
func (c Command[S, E]) Err() error {
	if c.Kind() != KindRaise {
		return nil
	}

	return c.steps[0].err
}

// Action returns the action of a leading Forward step, or nil.
func (c Command[S, E]) Action() Action[S, E] { //nolint:ireturn
	if c.Kind() != KindForward {
		return nil
	}

	return c.steps[0].action
}

// Thunk returns the thunk of a leading Async step, or nil.
func (c Command[S, E]) Thunk() Thunk[S, E] {
	if c.Kind() != KindAsync {
		return nil
	}

	return c.steps[0].thunk
}

// Callback returns the callback of a leading Defer step, or nil.
func (c Command[S, E]) Callback() func(*Continuation[S, E]) {
	if c.Kind() != KindDefer {
		return nil
	}

	return c.steps[0].callback
}

func (c Command[S, E]) String() string {
	if len(c.steps) == 0 {
		return KindNoop.String()
	}

	parts := make([]string, len(c.steps))

	for i, s := range c.steps {
		switch s.kind {
		case KindEnter:
			parts[i] = fmt.Sprintf("Enter(%v)", s.state)
		case KindRaise:
			parts[i] = fmt.Sprintf("Raise(%v)", s.err)
		default:
			parts[i] = s.kind.String()
		}
	}

	return strings.Join(parts, " -> ")
}
