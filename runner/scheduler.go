// Package runner interprets transition commands against state it owns.
//
// A Scheduler keeps one value of type S. Every mutation of that value and
// every call on a receiver happens in a confined context, so receivers never
// see concurrent callbacks. Async and deferred work runs elsewhere and comes
// back into the confined context as a new action.
//
// Receivers are tracked by identity and must be comparable, in practice a
// pointer. A receiver stays bound until Detach is called for it.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/amp-labs/amp-transducer/confine"
	amperrors "github.com/amp-labs/amp-transducer/errors"
	"github.com/amp-labs/amp-transducer/executor"
	"github.com/amp-labs/amp-transducer/future"
	"github.com/amp-labs/amp-transducer/logger"
	"github.com/amp-labs/amp-transducer/transition"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

const (
	sourceRaise      = "raise"
	sourceTransition = "transition"
	sourceSubmit     = "submit"
	sourceOrphan     = "orphan"
)

// Scheduler runs actions for receivers of type E against a state of type S.
// It is created stopped. Actions executed while stopped wait in the backlog
// until the next Start.
type Scheduler[S any, E transition.Receiver[S]] struct {
	name     string
	ctx      context.Context //nolint:containedctx
	cancel   context.CancelFunc
	log      *slog.Logger
	worker   executor.Executor
	joiner   executor.Executor
	confiner confine.Confiner
	timeout  time.Duration
	onOrphan func(error)
	hook     func(transition.Kind)
	owned    []io.Closer

	// state is written only in the confined context, under stateMu.
	stateMu sync.RWMutex
	state   S

	// lifeMu orders Start, Stop and the confined half of Start. started is
	// the lifecycle flag; running is set once the backlog replay begins and
	// gates every step.
	lifeMu     sync.Mutex
	started    bool
	generation uint64
	running    *atomic.Bool

	bindMu   sync.Mutex
	bindings map[any]*binding[E]
	current  *binding[E]

	backlog *backlog[S, E]
	pending *pendingSet[E]
	close   sync.Once
}

// New returns a stopped scheduler holding initial. Without options, async
// thunks and joins each get their own goroutine and the confined context is a
// confine.Serial.
func New[S any, E transition.Receiver[S]](initial S, opts ...Option) *Scheduler[S, E] {
	o := &options{
		name:   defaultName,
		ctx:    context.Background(),
		worker: executor.Goroutine,
		joiner: executor.Goroutine,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.confiner == nil {
		o.confiner = confine.NewSerial()
	}

	ctx, cancel := context.WithCancel(logger.With(o.ctx, "runner", o.name))

	s := &Scheduler[S, E]{
		name:     o.name,
		ctx:      ctx,
		cancel:   cancel,
		log:      o.log,
		worker:   o.worker,
		joiner:   o.joiner,
		confiner: o.confiner,
		timeout:  o.timeout,
		onOrphan: o.onOrphan,
		hook:     o.hook,
		state:    initial,
		running:  atomic.NewBool(false),
		bindings: make(map[any]*binding[E]),
		backlog:  newBacklog[S, E](o.name),
		pending:  newPendingSet[E](o.name),
	}

	if s.log == nil {
		s.log = logger.Get(ctx)
	}

	if s.onOrphan == nil {
		s.onOrphan = s.panicOnOrphan
	}

	return s
}

// NewFromConfig builds a scheduler whose worker and joiner are pond pools
// sized by cfg. The pools belong to the scheduler and are stopped by Close, or
// earlier when the context given through WithContext ends. Options given here
// override the ones derived from cfg.
func NewFromConfig[S any, E transition.Receiver[S]](initial S, cfg Config, opts ...Option) (*Scheduler[S, E], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := &options{ctx: context.Background()}
	for _, opt := range opts {
		opt(base)
	}

	workers := executor.NewPool(cfg.Workers,
		executor.WithName(cfg.Name+"-worker"),
		executor.WithContext(base.ctx))
	joiners := executor.NewPool(cfg.Joiners,
		executor.WithName(cfg.Name+"-joiner"),
		executor.WithContext(base.ctx))

	all := make([]Option, 0, len(opts)+4) //nolint:mnd
	all = append(all,
		WithName(cfg.Name),
		WithTimeout(cfg.Timeout()),
		WithWorker(workers),
		WithJoiner(joiners))
	all = append(all, opts...)

	s := New[S, E](initial, all...)
	s.owned = append(s.owned, joiners, workers)

	return s, nil
}

// Name returns the label used in logs, metrics and spans.
func (s *Scheduler[S, E]) Name() string {
	return s.name
}

// Running reports whether the scheduler has been started and not stopped.
func (s *Scheduler[S, E]) Running() bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	return s.started
}

// BacklogLen returns the number of actions waiting for the next Start.
func (s *Scheduler[S, E]) BacklogLen() int {
	return s.backlog.len()
}

// PendingLen returns the number of async and deferred tasks that have not
// settled.
func (s *Scheduler[S, E]) PendingLen() int {
	return s.pending.len()
}

// Inspect calls proc with the current state under a read lock. proc must not
// call back into the scheduler's mutating methods.
func (s *Scheduler[S, E]) Inspect(proc func(state S)) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	proc(s.state)
}

// Start binds recv as the current receiver, replays the backlog against it in
// order and then calls recv.OnEnter with the state. Starting a running
// scheduler does nothing.
//
// Actions executed before the replay begins join the backlog behind the older
// ones.
func (s *Scheduler[S, E]) Start(recv E) {
	s.lifeMu.Lock()
	if s.started {
		s.lifeMu.Unlock()

		return
	}

	s.started = true
	s.generation++
	gen := s.generation
	s.lifeMu.Unlock()

	b := s.attach(recv)

	s.bindMu.Lock()
	s.current = b
	s.bindMu.Unlock()

	lifecycleTotal.WithLabelValues(s.name, "start").Inc()
	s.log.Debug("runner started", "backlog", s.backlog.len())

	s.confiner.Run(func() {
		if !s.resume(gen) {
			return
		}

		s.replay(b)

		if recv, ok := b.get(); ok && s.running.Load() {
			recv.OnEnter(s.state)
		}
	})
}

// resume lets steps run again for the Start that issued gen. A Stop or a newer
// Start in between makes it a no-op. Runs in the confined context.
func (s *Scheduler[S, E]) resume(gen uint64) bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if !s.started || s.generation != gen {
		return false
	}

	s.running.Store(true)

	return true
}

// Stop stops applying actions and cancels the wait on every pending task.
// Results that still arrive go to the backlog. Stopping a stopped scheduler
// does nothing.
func (s *Scheduler[S, E]) Stop() {
	s.lifeMu.Lock()
	if !s.started {
		s.lifeMu.Unlock()

		return
	}

	s.started = false
	s.running.Store(false)
	s.lifeMu.Unlock()

	s.pending.cancelJoins()

	lifecycleTotal.WithLabelValues(s.name, "stop").Inc()
	s.log.Debug("runner stopped", "pending", s.pending.len())
}

// Exec applies action to the state on behalf of recv. While stopped the action
// is queued in the backlog instead. A nil action is ignored.
func (s *Scheduler[S, E]) Exec(recv E, action transition.Action[S, E]) {
	if action == nil {
		return
	}

	b := s.attach(recv)

	if !s.running.Load() {
		s.park(action)

		return
	}

	s.confiner.Run(func() { s.step(b, action) })
}

// Detach forgets recv. The scheduler drops its reference and never calls recv
// again; results of tasks it started go to the backlog. A step that is already
// running finishes against recv.
func (s *Scheduler[S, E]) Detach(recv E) {
	key := any(recv)

	s.bindMu.Lock()

	b, ok := s.bindings[key]
	if ok {
		delete(s.bindings, key)

		if s.current == b {
			s.current = nil
		}
	}

	s.bindMu.Unlock()

	if ok {
		b.detach()
	}
}

// Close stops the scheduler, cancels every work context and stops the pools
// it owns. Pools wait for running thunks, so thunks should honour their
// context.
func (s *Scheduler[S, E]) Close() error {
	var errs amperrors.Collection

	s.close.Do(func() {
		s.Stop()
		s.cancel()

		for _, c := range s.owned {
			errs.Add(c.Close())
		}

		s.log.Debug("runner closed")
	})

	return errs.GetError()
}

func (s *Scheduler[S, E]) attach(recv E) *binding[E] {
	key := any(recv)

	s.bindMu.Lock()
	defer s.bindMu.Unlock()

	if b, ok := s.bindings[key]; ok {
		return b
	}

	b := newBinding(recv)
	s.bindings[key] = b

	return b
}

func (s *Scheduler[S, E]) currentBinding() *binding[E] {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()

	return s.current
}

// step runs in the confined context.
func (s *Scheduler[S, E]) step(b *binding[E], action transition.Action[S, E]) {
	recv, ok := b.get()

	switch {
	case !s.running.Load():
		s.park(action)

		return
	case !ok:
		s.backlog.push(action)

		return
	}

	s.run(b, recv, action)
}

// replay runs backlog entries against b until the backlog is empty, the
// scheduler stops or b is detached. Runs in the confined context.
func (s *Scheduler[S, E]) replay(b *binding[E]) {
	for s.running.Load() {
		recv, ok := b.get()
		if !ok {
			return
		}

		action, ok := s.backlog.pop()
		if !ok {
			return
		}

		s.run(b, recv, action)
	}
}

// park queues action for the next replay. A Start whose replay already ran
// between the caller's check and the push picks it up here.
func (s *Scheduler[S, E]) park(action transition.Action[S, E]) {
	s.backlog.push(action)

	if s.running.Load() {
		s.confiner.Run(s.replayCurrent)
	}
}

func (s *Scheduler[S, E]) replayCurrent() {
	if b := s.currentBinding(); b != nil {
		s.replay(b)
	}
}

func (s *Scheduler[S, E]) run(b *binding[E], recv E, action transition.Action[S, E]) {
	ctx, span := startExecSpan(s.ctx, s.name)
	defer span.End()

	s.apply(ctx, b, recv, action)
}

// apply evaluates action and interprets the command. It reports false when the
// command raised, which ends the whole step.
func (s *Scheduler[S, E]) apply(ctx context.Context, b *binding[E], recv E, action transition.Action[S, E]) bool {
	cmd, fault := s.evaluate(recv, action)
	if fault != nil {
		s.raise(recv, fault, sourceTransition)

		return false
	}

	return s.interpret(ctx, b, recv, cmd)
}

func (s *Scheduler[S, E]) evaluate(recv E, action transition.Action[S, E]) (cmd transition.Command[S, E], fault error) {
	defer func() {
		if r := recover(); r != nil {
			fault = fmt.Errorf("%w: %w", transition.ErrTransitionFault, amperrors.FromPanic(r, debug.Stack()))
		}
	}()

	return action.Apply(s.state, recv), nil
}

func (s *Scheduler[S, E]) interpret(
	ctx context.Context,
	b *binding[E],
	recv E,
	cmd transition.Command[S, E],
) bool {
	for c := range cmd.All() {
		kind := c.Kind()

		commandsTotal.WithLabelValues(s.name, kind.String()).Inc()

		if s.hook != nil {
			s.hook(kind)
		}

		switch kind {
		case transition.KindNoop:
		case transition.KindReenter:
			recv.OnEnter(s.state)
		case transition.KindEnter:
			next, _ := c.State()
			recv.OnExit(s.state, next)
			s.setState(next)
			recv.OnEnter(next)
		case transition.KindRaise:
			s.raise(recv, c.Err(), sourceRaise)

			return false
		case transition.KindForward:
			if !s.apply(ctx, b, recv, c.Action()) {
				return false
			}
		case transition.KindAsync:
			s.async(ctx, b, recv, c.Thunk())
		case transition.KindDefer:
			s.deferTo(ctx, b, recv, c.Callback())
		}
	}

	return true
}

func (s *Scheduler[S, E]) setState(next S) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	s.state = next
}

func (s *Scheduler[S, E]) raise(recv E, err error, source string) {
	faultsTotal.WithLabelValues(s.name, source).Inc()
	recv.Handle(err)
}

func (s *Scheduler[S, E]) orphan(err error) {
	faultsTotal.WithLabelValues(s.name, sourceOrphan).Inc()
	s.onOrphan(err)
}

func (s *Scheduler[S, E]) panicOnOrphan(err error) {
	s.log.Error("fault reported after its receiver was detached", "error", err)

	panic(fmt.Errorf("%w: %w", ErrOrphanedFault, err))
}

func (s *Scheduler[S, E]) async(ctx context.Context, b *binding[E], recv E, thunk transition.Thunk[S, E]) {
	task, workCtx := s.register(ctx, b, transition.KindAsync)
	fut, promise := future.New[transition.Action[S, E]]()

	err := s.worker.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				promise.Failure(amperrors.FromPanic(r, debug.Stack()))
			}
		}()

		promise.Complete(thunk(workCtx))
	})
	if err != nil {
		s.abandon(task)
		s.raise(recv, fmt.Errorf("%w: worker: %w", ErrSubmit, err), sourceSubmit)

		return
	}

	s.join(recv, task, fut)
}

func (s *Scheduler[S, E]) deferTo(
	ctx context.Context,
	b *binding[E],
	recv E,
	callback func(*transition.Continuation[S, E]),
) {
	task, _ := s.register(ctx, b, transition.KindDefer)
	k, fut := transition.NewContinuation[S, E]()

	callDeferred(k, callback)
	s.join(recv, task, fut)
}

// callDeferred turns a panicking callback into a failed continuation.
func callDeferred[S, E any](k *transition.Continuation[S, E], callback func(*transition.Continuation[S, E])) {
	defer func() {
		if r := recover(); r != nil {
			k.Fail(fmt.Errorf("%w: %w", transition.ErrTransitionFault, amperrors.FromPanic(r, debug.Stack())))
		}
	}()

	callback(k)
}

// register creates the pending task. Its deadline is fixed here, at
// submission.
func (s *Scheduler[S, E]) register(
	ctx context.Context,
	b *binding[E],
	kind transition.Kind,
) (*pendingTask[E], context.Context) {
	id := uuid.New()
	spanCtx, span := startTaskSpan(ctx, s.name, id.String(), kind.String())

	task := &pendingTask[E]{
		id:      id,
		kind:    kind,
		binding: b,
		span:    span,
		settled: atomic.NewBool(false),
	}

	// Joins hang off the scheduler context rather than the step's, so Close
	// cancels them too.
	if s.timeout > 0 {
		task.deadline = time.Now().Add(s.timeout)
		task.joinCtx, task.cancelJoin = context.WithDeadline(s.ctx, task.deadline)
	} else {
		task.joinCtx, task.cancelJoin = context.WithCancel(s.ctx)
	}

	workCtx, cancelWork := context.WithCancel(spanCtx)
	task.cancelWork = cancelWork

	s.pending.add(task)

	// Stop may have run between the step's check and the registration.
	if !s.running.Load() {
		task.cancelJoin()
	}

	return task, workCtx
}

func (s *Scheduler[S, E]) join(recv E, task *pendingTask[E], fut *future.Future[transition.Action[S, E]]) {
	err := s.joiner.Go(func() { s.await(task, fut) })
	if err != nil {
		s.abandon(task)
		s.raise(recv, fmt.Errorf("%w: joiner: %w", ErrSubmit, err), sourceSubmit)
	}
}

// await runs on the joiner. A result that is already there wins over an
// expired deadline.
func (s *Scheduler[S, E]) await(task *pendingTask[E], fut *future.Future[transition.Action[S, E]]) {
	if result, ok := fut.Poll(); ok {
		s.settle(task, result)

		return
	}

	select {
	case <-fut.Done():
		result, _ := fut.Poll()
		s.settle(task, result)
	case <-task.joinCtx.Done():
		if result, ok := fut.Poll(); ok {
			s.settle(task, result)

			return
		}

		if errors.Is(task.joinCtx.Err(), context.DeadlineExceeded) {
			s.expire(task)

			return
		}

		// OnResult recovers panics, so the salvage runs on the joiner instead.
		fut.OnResult(func(result future.Result[transition.Action[S, E]]) {
			s.handOff(func() { s.salvage(task, result) })
		})
	}
}

func (s *Scheduler[S, E]) settle(task *pendingTask[E], result future.Result[transition.Action[S, E]]) {
	if !task.claim() {
		taskOutcomes.WithLabelValues(s.name, outcomeLate).Inc()

		return
	}

	action, outcome := resultAction(result)
	s.finish(task, outcome)

	if action != nil {
		s.deliver(task.binding, action, nil)
	}
}

func (s *Scheduler[S, E]) expire(task *pendingTask[E]) {
	if !task.claim() {
		return
	}

	s.finish(task, outcomeTimeout)

	err := logger.AnnotateError(&TimeoutError{
		TaskID:  task.id,
		Kind:    task.kind,
		Timeout: s.timeout,
	}, "task_id", task.id.String())

	s.log.Debug("pending task timed out", "task_id", task.id.String(), "kind", task.kind.String())
	s.deliver(task.binding, transition.PureCommand(transition.Raise[S, E](err)), err)
}

// salvage queues a result that arrived after its join was cancelled. If the
// scheduler has been restarted meanwhile the backlog is replayed right away.
func (s *Scheduler[S, E]) salvage(task *pendingTask[E], result future.Result[transition.Action[S, E]]) {
	if !task.claim() {
		return
	}

	action, _ := resultAction(result)
	s.finish(task, outcomeSalvaged)
	s.log.Debug("salvaged pending task result", "task_id", task.id.String())

	if action != nil {
		s.park(action)
	}
}

// handOff runs f on the joiner, or on a new goroutine once the joiner refuses
// work.
func (s *Scheduler[S, E]) handOff(f func()) {
	if err := s.joiner.Go(f); err != nil {
		go f()
	}
}

// abandon settles a task whose submission failed.
func (s *Scheduler[S, E]) abandon(task *pendingTask[E]) {
	if task.claim() {
		s.finish(task, outcomeError)
	}
}

func (s *Scheduler[S, E]) finish(task *pendingTask[E], outcome string) {
	s.pending.remove(task.id)
	task.release(outcome)
	taskOutcomes.WithLabelValues(s.name, outcome).Inc()
}

// deliver routes a settled task's action. An attached receiver on a running
// scheduler gets a new step, otherwise the action waits in the backlog. A
// fault whose receiver is gone goes to the orphan handler.
func (s *Scheduler[S, E]) deliver(b *binding[E], action transition.Action[S, E], fault error) {
	alive := b.alive()

	switch {
	case !alive && fault != nil:
		s.orphan(fault)
	case !s.running.Load():
		s.park(action)
	case alive:
		s.confiner.Run(func() { s.step(b, action) })
	default:
		s.backlog.push(action)
	}
}

func resultAction[S, E any](result future.Result[transition.Action[S, E]]) (transition.Action[S, E], string) { //nolint:ireturn
	if result.Error != nil {
		return transition.PureCommand(transition.Raise[S, E](result.Error)), outcomeError
	}

	return result.Value, outcomeResult
}
