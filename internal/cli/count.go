package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/amp-labs/amp-transducer/logger"
	"github.com/amp-labs/amp-transducer/runner"
	"github.com/amp-labs/amp-transducer/shutdown"
	"github.com/amp-labs/amp-transducer/telemetry"
	"github.com/amp-labs/amp-transducer/transition"
	"github.com/spf13/cobra"
)

const runningEnv = "local"

// CountOptions holds the flags of the count command.
type CountOptions struct {
	*RootOptions

	Ticks    int
	Interval time.Duration
}

// NewCountCommand creates the count command. It submits one async increment
// per tick and prints the final count.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CountOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count to --ticks with background increments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCount(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.Ticks, "ticks", 10, "number of increments")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 100*time.Millisecond, "time each increment takes")

	return cmd
}

// tally is the count command's receiver.
type tally struct {
	target int
	done   chan struct{}
	once   sync.Once

	mu   sync.Mutex
	errs []error
}

func (t *tally) OnEnter(n int) {
	if n >= t.target {
		t.once.Do(func() { close(t.done) })
	}
}

func (*tally) OnExit(int, int) {}

func (t *tally) Handle(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.errs = append(t.errs, err)
}

func (t *tally) failures() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.errs)
}

func loadRunnerConfig(ctx context.Context, path string) (runner.Config, error) {
	if path != "" {
		return runner.LoadConfig(path)
	}

	return runner.ConfigFromEnv(ctx)
}

// withShutdown runs f under a shutdown handler and returns only after the
// handler's hooks have finished.
func withShutdown(ctx context.Context, f func(ctx context.Context, handler *shutdown.Handler) error) error {
	ctx, handler := shutdown.SetupHandler(ctx)

	defer func() {
		handler.Shutdown()
		handler.Wait()
	}()

	return f(ctx, handler)
}

func runCount(ctx context.Context, opts *CountOptions, out io.Writer) error {
	return withShutdown(ctx, func(ctx context.Context, handler *shutdown.Handler) error {
		return countTo(ctx, handler, opts, out)
	})
}

func countTo(ctx context.Context, handler *shutdown.Handler, opts *CountOptions, out io.Writer) error {
	cfg, err := loadRunnerConfig(ctx, opts.Config)
	if err != nil {
		return err
	}

	otelConfig, err := telemetry.LoadConfigFromEnv(ctx, runningEnv)
	if err != nil {
		return err
	}

	if err := telemetry.Initialize(ctx, otelConfig); err != nil {
		return err
	}

	handler.BeforeShutdown(func() {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			logger.Get(ctx).Warn("failed to shut down telemetry", "error", err)
		}
	})

	scheduler, err := runner.NewFromConfig[int, *tally](0, cfg, runner.WithContext(ctx))
	if err != nil {
		return err
	}

	defer scheduler.Close() //nolint:errcheck

	view := &tally{target: opts.Ticks, done: make(chan struct{})}
	scheduler.Start(view)

	interval := opts.Interval
	increment := transition.PureFunc[int, *tally](func(n int) int { return n + 1 })

	for range opts.Ticks {
		scheduler.Exec(view, transition.PureAsync[int, *tally](
			func(ctx context.Context) (transition.Action[int, *tally], error) {
				select {
				case <-time.After(interval):
					return increment, nil
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}))
	}

	if opts.Ticks > 0 {
		select {
		case <-view.done:
		case <-ctx.Done():
			logger.Get(ctx).Warn("count interrupted")
		}
	}

	scheduler.Stop()

	count := runner.Project(scheduler, func(n int) int { return n })

	_, err = fmt.Fprintf(out, "final count: %d (errors: %d)\n", count, view.failures())

	return err
}
