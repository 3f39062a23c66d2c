package runner

import "sync"

// binding is the liveness token between a scheduler and one receiver. Once
// detached it drops its reference and never hands the receiver out again.
type binding[E any] struct {
	mu       sync.Mutex
	recv     E
	attached bool
}

func newBinding[E any](recv E) *binding[E] {
	return &binding[E]{recv: recv, attached: true}
}

func (b *binding[E]) get() (E, bool) { //nolint:ireturn
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.recv, b.attached
}

func (b *binding[E]) alive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.attached
}

func (b *binding[E]) detach() {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero E

	b.recv = zero
	b.attached = false
}
