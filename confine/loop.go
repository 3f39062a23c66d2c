package confine

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	amperrors "github.com/amp-labs/amp-transducer/errors"
	"github.com/amp-labs/amp-transducer/logger"
)

// ErrLoopClosed is returned by Flush when the loop stopped before the flush
// marker ran.
var ErrLoopClosed = errors.New("confinement loop closed")

type loopOptions struct {
	onPanic func(error)
}

// LoopOption configures a Loop.
type LoopOption func(*loopOptions)

// WithPanicHandler sets the function called, on the loop goroutine, with the
// error recovered from a panicking task. The default re-panics, which ends the
// process.
func WithPanicHandler(handler func(err error)) LoopOption {
	return func(o *loopOptions) {
		o.onPanic = handler
	}
}

// Loop is a confiner backed by one dedicated goroutine, like a UI main thread.
// Its mailbox is unbounded, so Run never blocks.
type Loop struct {
	name      string
	subsystem string
	ctx       context.Context //nolint:containedctx
	cancel    context.CancelFunc
	onPanic   func(error)

	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

var _ Confiner = (*Loop)(nil)

// NewLoop starts a loop that runs until ctx is done or Close is called. The
// name labels logs and metrics.
func NewLoop(ctx context.Context, name string, opts ...LoopOption) *Loop {
	options := &loopOptions{
		onPanic: func(err error) { panic(err) },
	}

	for _, opt := range opts {
		opt(options)
	}

	ctx, cancel := context.WithCancel(ctx)

	l := &Loop{
		name:      name,
		subsystem: logger.GetSubsystem(ctx),
		ctx:       ctx,
		cancel:    cancel,
		onPanic:   options.onPanic,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}

	loopProcessed.WithLabelValues(l.subsystem, name).Add(0)
	loopPanics.WithLabelValues(l.subsystem, name).Add(0)
	loopQueued.WithLabelValues(l.subsystem, name).Set(0)
	loopAlive.WithLabelValues(l.subsystem, name).Inc()

	go l.run()

	return l
}

// Name returns the loop's name.
func (l *Loop) Name() string {
	return l.name
}

// Run queues task for the loop goroutine. Tasks submitted after the loop was
// closed are dropped.
func (l *Loop) Run(task func()) {
	if task == nil {
		return
	}

	l.mu.Lock()

	if l.closed {
		l.mu.Unlock()
		loopDropped.WithLabelValues(l.subsystem, l.name).Inc()
		logger.Get(l.ctx).Debug("task submitted to closed loop was dropped", "loop", l.name)

		return
	}

	l.queue = append(l.queue, task)
	depth := len(l.queue)
	l.mu.Unlock()

	loopQueued.WithLabelValues(l.subsystem, l.name).Set(float64(depth))

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Flush waits until every task queued before the call has run. It must not
// be called from a task running on the loop.
func (l *Loop) Flush(ctx context.Context) error {
	marker := make(chan struct{})

	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()

	if closed {
		return ErrLoopClosed
	}

	l.Run(func() { close(marker) })

	select {
	case <-marker:
		return nil
	case <-l.done:
		select {
		case <-marker:
			return nil
		default:
			return ErrLoopClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks. Tasks already queued still run before the loop
// goroutine exits. It is safe to call more than once.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	l.cancel()
}

// Wait blocks until the loop goroutine has exited.
func (l *Loop) Wait() {
	<-l.done
}

// Done is closed when the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) take() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil, false
	}

	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]

	loopQueued.WithLabelValues(l.subsystem, l.name).Set(float64(len(l.queue)))

	return task, true
}

func (l *Loop) run() {
	defer close(l.done)
	defer loopAlive.WithLabelValues(l.subsystem, l.name).Dec()

	for {
		for {
			task, ok := l.take()
			if !ok {
				break
			}

			l.runTask(task)
		}

		select {
		case <-l.wake:
		case <-l.ctx.Done():
			l.mu.Lock()
			l.closed = true
			l.mu.Unlock()

			for {
				task, ok := l.take()
				if !ok {
					return
				}

				l.runTask(task)
			}
		}
	}
}

func (l *Loop) runTask(task func()) {
	start := time.Now()

	defer func() {
		loopProcessed.WithLabelValues(l.subsystem, l.name).Inc()
		loopTaskTime.WithLabelValues(l.subsystem, l.name).Observe(time.Since(start).Seconds())
	}()

	defer func() {
		if r := recover(); r != nil {
			err := amperrors.FromPanic(r, debug.Stack())

			loopPanics.WithLabelValues(l.subsystem, l.name).Inc()
			logger.Get(l.ctx).Error("confinement loop recovered from panic",
				"loop", l.name,
				"error", err)

			l.onPanic(err)
		}
	}()

	task()
}
