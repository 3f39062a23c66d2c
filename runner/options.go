package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/amp-labs/amp-transducer/confine"
	"github.com/amp-labs/amp-transducer/executor"
	"github.com/amp-labs/amp-transducer/transition"
)

const defaultName = "runner"

type options struct {
	name     string
	ctx      context.Context //nolint:containedctx
	worker   executor.Executor
	joiner   executor.Executor
	confiner confine.Confiner
	timeout  time.Duration
	onOrphan func(error)
	hook     func(transition.Kind)
	log      *slog.Logger
}

// Option configures a Scheduler.
type Option func(*options)

// WithName labels the scheduler's logs, metrics and spans.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithContext sets the parent of every work context handed to a thunk.
// Close cancels it.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithWorker sets the executor async thunks run on. Defaults to
// executor.Goroutine.
func WithWorker(worker executor.Executor) Option {
	return func(o *options) {
		o.worker = worker
	}
}

// WithJoiner sets the executor that waits for pending tasks. Defaults to
// executor.Goroutine.
//
// A joiner that runs one wait at a time (a pool of one, for instance) still
// enforces every task's own deadline, but a slow wait delays noticing that a
// later task has already timed out.
func WithJoiner(joiner executor.Executor) Option {
	return func(o *options) {
		o.joiner = joiner
	}
}

// WithTimeout bounds every async and deferred task. Zero means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithConfiner sets the confined context that owns the state. Defaults to
// confine.NewSerial().
func WithConfiner(confiner confine.Confiner) Option {
	return func(o *options) {
		o.confiner = confiner
	}
}

// WithOrphanHandler replaces what happens to a fault whose receiver has been
// detached. The default logs the fault and panics.
func WithOrphanHandler(handler func(err error)) Option {
	return func(o *options) {
		o.onOrphan = handler
	}
}

// WithCommandHook is called with the kind of every interpreted primitive, in
// the confined context.
func WithCommandHook(hook func(transition.Kind)) Option {
	return func(o *options) {
		o.hook = hook
	}
}

// WithLogger sends the scheduler's logs to log instead of logger.Get.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}
