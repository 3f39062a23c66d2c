package runner

import (
	"sync"

	"github.com/amp-labs/amp-transducer/transition"
	"github.com/prometheus/client_golang/prometheus"
)

// backlog holds actions that could not run yet, oldest first.
type backlog[S, E any] struct {
	mu      sync.Mutex
	actions []transition.Action[S, E]
	depth   prometheus.Gauge
}

func newBacklog[S, E any](name string) *backlog[S, E] {
	return &backlog[S, E]{depth: backlogDepth.WithLabelValues(name)}
}

func (b *backlog[S, E]) push(action transition.Action[S, E]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.actions = append(b.actions, action)
	b.depth.Set(float64(len(b.actions)))
}

func (b *backlog[S, E]) pop() (transition.Action[S, E], bool) { //nolint:ireturn
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.actions) == 0 {
		return nil, false
	}

	action := b.actions[0]
	b.actions[0] = nil
	b.actions = b.actions[1:]
	b.depth.Set(float64(len(b.actions)))

	return action, true
}

func (b *backlog[S, E]) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.actions)
}
