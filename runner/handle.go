package runner

import "github.com/amp-labs/amp-transducer/transition"

// Inspector exposes read-only access to a state.
type Inspector[S any] interface {
	Inspect(proc func(state S))
}

var (
	_ Inspector[int] = (*Scheduler[int, transition.Receiver[int]])(nil)
	_ Inspector[int] = (*Handle[int, transition.Receiver[int]])(nil)
)

// Project reads the state through transform.
func Project[S, T any](p Inspector[S], transform func(state S) T) T { //nolint:ireturn
	var out T

	p.Inspect(func(state S) {
		out = transform(state)
	})

	return out
}

// Handle pairs a scheduler with one receiver so callers don't have to pass
// the receiver around. It holds no state of its own.
type Handle[S any, E transition.Receiver[S]] struct {
	scheduler *Scheduler[S, E]
	recv      E
}

// Bind returns a handle for recv. Nothing is attached until the handle is
// used.
func (s *Scheduler[S, E]) Bind(recv E) *Handle[S, E] {
	return &Handle[S, E]{scheduler: s, recv: recv}
}

// Start starts the scheduler with the bound receiver.
func (h *Handle[S, E]) Start() { h.scheduler.Start(h.recv) }

// Stop stops the scheduler.
func (h *Handle[S, E]) Stop() { h.scheduler.Stop() }

// Exec runs action on behalf of the bound receiver.
func (h *Handle[S, E]) Exec(action transition.Action[S, E]) { h.scheduler.Exec(h.recv, action) }

// Inspect calls proc with the current state.
func (h *Handle[S, E]) Inspect(proc func(state S)) { h.scheduler.Inspect(proc) }

// Detach detaches the bound receiver. The handle re-attaches it on the next
// Start or Exec.
func (h *Handle[S, E]) Detach() { h.scheduler.Detach(h.recv) }

// Receiver returns the bound receiver.
func (h *Handle[S, E]) Receiver() E { return h.recv } //nolint:ireturn

// Scheduler returns the underlying scheduler.
func (h *Handle[S, E]) Scheduler() *Scheduler[S, E] { return h.scheduler }
