// Package loadable is a small state machine for content that is fetched in
// the background: it starts out untouched, shows progress while a fetch runs
// and ends up either loaded or empty.
package loadable

import (
	"strconv"

	"github.com/amp-labs/amp-transducer/transition"
)

// Phase is where a Content is in its load cycle.
type Phase int

const (
	PhaseBegin Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseEmpty
	PhaseRefreshing
)

func (p Phase) String() string {
	switch p {
	case PhaseBegin:
		return "Begin"
	case PhaseLoading:
		return "Loading"
	case PhaseLoaded:
		return "Loaded"
	case PhaseEmpty:
		return "Empty"
	case PhaseRefreshing:
		return "Refreshing"
	default:
		return "Phase(" + strconv.Itoa(int(p)) + ")"
	}
}

// Event says why a load was asked for.
type Event int

const (
	// EventInit is the first load from PhaseBegin.
	EventInit Event = iota
	// EventLoad retries after an empty result.
	EventLoad
	// EventRefresh reloads content that is already there.
	EventRefresh
)

func (e Event) String() string {
	switch e {
	case EventInit:
		return "Init"
	case EventLoad:
		return "Load"
	case EventRefresh:
		return "Refresh"
	default:
		return "Event(" + strconv.Itoa(int(e)) + ")"
	}
}

// Content is the state. Data is only meaningful while Loaded or Refreshing.
// The zero value is in PhaseBegin.
type Content[T any] struct {
	Phase Phase
	Data  T
}

// View receives Content transitions and decides whether a load may start.
type View[T any] interface {
	transition.Receiver[Content[T]]

	// ShouldFetch vetoes a load. current is the zero value unless event is
	// EventRefresh.
	ShouldFetch(event Event, current T) bool
	// DidFetch is told whether a finished fetch came back empty.
	DidFetch(empty bool)
}

// Renderer has one method per phase.
type Renderer[T any] interface {
	Begin()
	Loading()
	Loaded(data T)
	Refreshing(old T)
	Empty()
}

// Render calls the Renderer method matching content's phase.
func Render[T any](r Renderer[T], content Content[T]) {
	switch content.Phase {
	case PhaseBegin:
		r.Begin()
	case PhaseLoading:
		r.Loading()
	case PhaseLoaded:
		r.Loaded(content.Data)
	case PhaseEmpty:
		r.Empty()
	case PhaseRefreshing:
		r.Refreshing(content.Data)
	}
}

// Rendered adapts a Renderer to View. With no hooks set it fetches on every
// event and panics on errors like transition.BaseReceiver.
type Rendered[T any] struct {
	transition.BaseReceiver[Content[T]]

	Renderer Renderer[T]
	Fetch    func(event Event, current T) bool
	Fetched  func(empty bool)
	Errors   func(err error)
}

var _ View[int] = (*Rendered[int])(nil)

func (v *Rendered[T]) OnEnter(content Content[T]) {
	Render(v.Renderer, content)
}

func (v *Rendered[T]) ShouldFetch(event Event, current T) bool {
	if v.Fetch == nil {
		return true
	}

	return v.Fetch(event, current)
}

func (v *Rendered[T]) DidFetch(empty bool) {
	if v.Fetched != nil {
		v.Fetched(empty)
	}
}

func (v *Rendered[T]) Handle(err error) {
	if v.Errors != nil {
		v.Errors(err)

		return
	}

	v.BaseReceiver.Handle(err)
}
