package executor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/amp-labs/amp-transducer/errors"
	"github.com/amp-labs/amp-transducer/logger"
)

const defaultPoolName = "default"

type poolOptions struct {
	name    string
	ctx     context.Context //nolint:containedctx
	onPanic func(error)
}

// Option configures a Pool.
type Option func(*poolOptions)

// WithName labels the pool's logs and metrics.
func WithName(name string) Option {
	return func(p *poolOptions) {
		p.name = name
	}
}

// WithContext sets the context the pool derives from and logs with.
// Cancelling it stops the pool.
func WithContext(ctx context.Context) Option {
	return func(p *poolOptions) {
		p.ctx = ctx
	}
}

// WithPanicHandler sets the function called, on the worker goroutine, with the
// error recovered from a panicking task. The default re-panics, which ends the
// process.
func WithPanicHandler(handler func(err error)) Option {
	return func(p *poolOptions) {
		p.onPanic = handler
	}
}

// Pool is a bounded worker pool backed by pond. At most size tasks run at
// once; the rest wait in pond's queue. A panicking task is logged and handed
// to the panic handler.
type Pool struct {
	name    string
	ctx     context.Context //nolint:containedctx
	pool    pond.Pool
	onPanic func(error)
	close   sync.Once
}

var _ Executor = (*Pool)(nil)

// NewPool starts a pool with size workers. A size below one is raised to one.
func NewPool(size int, opts ...Option) *Pool {
	options := &poolOptions{
		name: defaultPoolName,
		ctx:  context.Background(),
	}

	for _, opt := range opts {
		opt(options)
	}

	if size < 1 {
		size = 1
	}

	if options.onPanic == nil {
		options.onPanic = rethrow
	}

	p := &Pool{
		name:    options.name,
		ctx:     options.ctx,
		pool:    pond.NewPool(size, pond.WithContext(options.ctx), pond.WithoutPanicRecovery()),
		onPanic: options.onPanic,
	}

	poolAlive.WithLabelValues(p.name).Set(1)
	logger.Get(p.ctx).Debug("executor pool started", "pool", p.name, "size", size)

	return p
}

// Name returns the pool's label.
func (p *Pool) Name() string {
	return p.name
}

// Go queues task. It returns an error wrapping ErrStopped once the pool has
// been closed.
func (p *Pool) Go(task func()) error {
	err := p.pool.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				err := errors.FromPanic(r, debug.Stack())

				tasksPanicked.WithLabelValues(p.name).Inc()
				logger.Get(p.ctx).Error("executor task panicked", "pool", p.name, "error", err)
				p.onPanic(err)
			}
		}()

		task()
	})
	if err != nil {
		tasksRejected.WithLabelValues(p.name).Inc()

		return fmt.Errorf("%w: pool %q: %w", ErrStopped, p.name, err)
	}

	tasksSubmitted.WithLabelValues(p.name).Inc()

	return nil
}

// Stopped reports whether the pool no longer accepts tasks.
func (p *Pool) Stopped() bool {
	return p.pool.Stopped()
}

// Close stops accepting tasks and waits for queued and running ones to finish.
// It is safe to call more than once.
func (p *Pool) Close() error {
	p.close.Do(func() {
		p.pool.StopAndWait()
		poolAlive.WithLabelValues(p.name).Set(0)
		logger.Get(p.ctx).Debug("executor pool stopped", "pool", p.name)
	})

	return nil
}

func rethrow(err error) {
	panic(err)
}
