package loadable

import (
	"context"

	"github.com/amp-labs/amp-transducer/transition"
)

// Fetch loads the content. ok false means there is nothing to show.
type Fetch[T any] func(ctx context.Context) (data T, ok bool, err error)

// Loader builds the actions that drive a Content through its phases.
type Loader[T any, V View[T]] struct {
	fetch Fetch[T]
}

// New returns a loader that gets its data from fetch.
func New[T any, V View[T]](fetch Fetch[T]) *Loader[T, V] {
	return &Loader[T, V]{fetch: fetch}
}

// Load starts a fetch from Begin, Empty or Loaded when the view agrees. It
// enters Loading (Refreshing when there was data) and fetches in the
// background. Loads asked for while a fetch is running are ignored.
func (l *Loader[T, V]) Load() transition.Mealy[Content[T], V] {
	return func(content Content[T], view V) transition.Command[Content[T], V] {
		var (
			zero   T
			should bool
		)

		switch content.Phase {
		case PhaseBegin:
			should = view.ShouldFetch(EventInit, zero)
		case PhaseEmpty:
			should = view.ShouldFetch(EventLoad, zero)
		case PhaseLoaded:
			should = view.ShouldFetch(EventRefresh, content.Data)
		case PhaseLoading, PhaseRefreshing:
		}

		if !should {
			return transition.Noop[Content[T], V]()
		}

		next := Content[T]{Phase: PhaseLoading}
		if content.Phase == PhaseLoaded {
			next = Content[T]{Phase: PhaseRefreshing, Data: content.Data}
		}

		return transition.EnterThen(next, l.thunk(content))
	}
}

// Reset drops the data and enters Empty.
func (l *Loader[T, V]) Reset() transition.Moore[Content[T], V] {
	return transition.Pure[Content[T], V](Content[T]{Phase: PhaseEmpty})
}

// thunk fetches and turns the outcome into the next action. A failed fetch
// goes back to prev before raising.
func (l *Loader[T, V]) thunk(prev Content[T]) transition.Thunk[Content[T], V] {
	return func(ctx context.Context) (transition.Action[Content[T], V], error) {
		data, ok, err := l.fetch(ctx)
		if err != nil {
			return transition.PureCommand(
				transition.Enter[Content[T], V](prev).Then(transition.Raise[Content[T], V](err))), nil
		}

		return transition.Mealy[Content[T], V](func(_ Content[T], view V) transition.Command[Content[T], V] {
			view.DidFetch(!ok)

			if !ok {
				return transition.Enter[Content[T], V](Content[T]{Phase: PhaseEmpty})
			}

			return transition.Enter[Content[T], V](Content[T]{Phase: PhaseLoaded, Data: data})
		}), nil
	}
}
