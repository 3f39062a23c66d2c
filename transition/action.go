package transition

import (
	"context"
)

// Action computes the next command from the current state. The receiver is
// passed for actions that need it; state-only actions ignore it.
type Action[S, E any] interface {
	Apply(state S, recv E) Command[S, E]
}

// Moore is a state-only action. Its body never sees the receiver, which
// learns about the transition only through OnEnter.
type Moore[S, E any] func(state S) Command[S, E]

// Mealy is a receiver-visible action. Its body may call receiver methods
// directly in addition to returning a command.
type Mealy[S, E any] func(state S, recv E) Command[S, E]

var (
	_ Action[int, any] = Moore[int, any](nil)
	_ Action[int, any] = Mealy[int, any](nil)
)

// Apply runs m against state. The receiver is dropped before m is called.
func (m Moore[S, E]) Apply(state S, _ E) Command[S, E] {
	return m(state)
}

// Apply runs m against state and recv.
func (m Mealy[S, E]) Apply(state S, recv E) Command[S, E] {
	return m(state, recv)
}

// Pure always enters state.
func Pure[S, E any](state S) Moore[S, E] {
	return func(S) Command[S, E] {
		return Enter[S, E](state)
	}
}

// PureCommand ignores the state and returns cmd.
func PureCommand[S, E any](cmd Command[S, E]) Moore[S, E] {
	return func(S) Command[S, E] {
		return cmd
	}
}

// PureAsync always runs thunk in the background.
func PureAsync[S, E any](thunk Thunk[S, E]) Moore[S, E] {
	return PureCommand(Async(thunk))
}

// PureFunc enters transform(state).
func PureFunc[S, E any](transform func(S) S) Moore[S, E] {
	return func(state S) Command[S, E] {
		return Enter[S, E](transform(state))
	}
}

// Effect calls f with the receiver and returns Noop.
func Effect[S, E any](f func(recv E)) Mealy[S, E] {
	return func(_ S, recv E) Command[S, E] {
		f(recv)

		return Noop[S, E]()
	}
}

// EffectWith calls f with the state and the receiver and returns Noop.
func EffectWith[S, E any](f func(state S, recv E)) Mealy[S, E] {
	return func(state S, recv E) Command[S, E] {
		f(state, recv)

		return Noop[S, E]()
	}
}

// Then combines two actions: a is applied, then b against the resulting state.
func Then[S, E any](a, b Action[S, E]) Mealy[S, E] {
	return func(state S, recv E) Command[S, E] {
		return a.Apply(state, recv).ThenAction(b)
	}
}

// After combines two actions: b is applied, then a against the resulting state.
func After[S, E any](a, b Action[S, E]) Mealy[S, E] {
	return Then(b, a)
}

// ToMealy lifts m into a receiver-visible action. The lifted body still
// cannot reach the receiver.
func (m Moore[S, E]) ToMealy() Mealy[S, E] {
	return func(state S, _ E) Command[S, E] {
		return m(state)
	}
}

// Then applies m, then next against the resulting state.
func (m Moore[S, E]) Then(next Action[S, E]) Moore[S, E] {
	return func(state S) Command[S, E] {
		return m(state).ThenAction(next)
	}
}

// ThenCommand applies m, then runs cmd.
func (m Moore[S, E]) ThenCommand(cmd Command[S, E]) Moore[S, E] {
	return func(state S) Command[S, E] {
		return m(state).Then(cmd)
	}
}

// ThenAsync applies m, then runs thunk in the background.
func (m Moore[S, E]) ThenAsync(thunk Thunk[S, E]) Moore[S, E] {
	return m.ThenCommand(Async(thunk))
}

// ThenState applies m, then enters next.
func (m Moore[S, E]) ThenState(next S) Moore[S, E] {
	return m.ThenCommand(Enter[S, E](next))
}

// After applies prev, then m against the resulting state.
func (m Moore[S, E]) After(prev Action[S, E]) Moore[S, E] {
	return PureCommand(Forward(prev).ThenAction(m))
}

// AfterState enters prev, then applies m to it.
func (m Moore[S, E]) AfterState(prev S) Moore[S, E] {
	return PureCommand(Enter[S, E](prev).ThenAction(m))
}

// AfterCommand runs cmd, then applies m.
func (m Moore[S, E]) AfterCommand(cmd Command[S, E]) Command[S, E] {
	return cmd.ThenAction(m)
}

// AfterAsync returns a thunk that runs thunk, then applies m after the action
// it produced.
func (m Moore[S, E]) AfterAsync(thunk Thunk[S, E]) Thunk[S, E] {
	return chainThunk(thunk, m)
}

// Then applies m, then next against the resulting state.
func (m Mealy[S, E]) Then(next Action[S, E]) Mealy[S, E] {
	return func(state S, recv E) Command[S, E] {
		return m(state, recv).ThenAction(next)
	}
}

// ThenCommand applies m, then runs cmd.
func (m Mealy[S, E]) ThenCommand(cmd Command[S, E]) Mealy[S, E] {
	return func(state S, recv E) Command[S, E] {
		return m(state, recv).Then(cmd)
	}
}

// ThenAsync applies m, then runs thunk in the background.
func (m Mealy[S, E]) ThenAsync(thunk Thunk[S, E]) Mealy[S, E] {
	return m.ThenCommand(Async(thunk))
}

// ThenState applies m, then enters next.
func (m Mealy[S, E]) ThenState(next S) Mealy[S, E] {
	return m.ThenCommand(Enter[S, E](next))
}

// After applies prev, then m against the resulting state.
func (m Mealy[S, E]) After(prev Action[S, E]) Mealy[S, E] {
	return Then[S, E](prev, m)
}

// AfterState enters prev, then applies m to it.
func (m Mealy[S, E]) AfterState(prev S) Mealy[S, E] {
	return func(S, E) Command[S, E] {
		return Enter[S, E](prev).ThenAction(m)
	}
}

// AfterCommand runs cmd, then applies m.
func (m Mealy[S, E]) AfterCommand(cmd Command[S, E]) Command[S, E] {
	return cmd.ThenAction(m)
}

// AfterAsync returns a thunk that runs thunk, then applies m after the action
// it produced.
func (m Mealy[S, E]) AfterAsync(thunk Thunk[S, E]) Thunk[S, E] {
	return chainThunk(thunk, m)
}

func chainThunk[S, E any](thunk Thunk[S, E], next Action[S, E]) Thunk[S, E] {
	return func(ctx context.Context) (Action[S, E], error) {
		action, err := thunk(ctx)
		if err != nil {
			return nil, err
		}

		if action == nil {
			return next, nil
		}

		return Then(action, next), nil
	}
}
