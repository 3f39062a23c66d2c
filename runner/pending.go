package runner

import (
	"context"
	"sync"
	"time"

	"github.com/amp-labs/amp-transducer/transition"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

// pendingTask is an async or deferred task between submission and
// settlement. Exactly one of result, timeout or salvage claims it.
type pendingTask[E any] struct {
	id       uuid.UUID
	kind     transition.Kind
	binding  *binding[E]
	deadline time.Time

	joinCtx    context.Context //nolint:containedctx
	cancelJoin context.CancelFunc
	cancelWork context.CancelFunc
	span       trace.Span

	settled *atomic.Bool
}

func (t *pendingTask[E]) claim() bool {
	return t.settled.CompareAndSwap(false, true)
}

// release frees the task's contexts once it has been claimed.
func (t *pendingTask[E]) release(outcome string) {
	t.cancelJoin()

	if t.cancelWork != nil {
		t.cancelWork()
	}

	endTaskSpan(t.span, outcome)
}

type pendingSet[E any] struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*pendingTask[E]
	gauge prometheus.Gauge
}

func newPendingSet[E any](name string) *pendingSet[E] {
	return &pendingSet[E]{
		tasks: make(map[uuid.UUID]*pendingTask[E]),
		gauge: pendingTasks.WithLabelValues(name),
	}
}

func (p *pendingSet[E]) add(task *pendingTask[E]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tasks[task.id] = task
	p.gauge.Set(float64(len(p.tasks)))
}

func (p *pendingSet[E]) remove(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.tasks, id)
	p.gauge.Set(float64(len(p.tasks)))
}

// cancelJoins stops every outstanding join wait. The tasks stay registered
// until their results are salvaged.
func (p *pendingSet[E]) cancelJoins() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, task := range p.tasks {
		task.cancelJoin()
	}
}

func (p *pendingSet[E]) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.tasks)
}
