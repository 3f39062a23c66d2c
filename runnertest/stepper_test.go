package runnertest_test

import (
	"context"
	"testing"

	"github.com/amp-labs/amp-transducer/runner"
	"github.com/amp-labs/amp-transducer/runnertest"
	"github.com/amp-labs/amp-transducer/transition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	rec = runnertest.Recorder[int]
	act = transition.Action[int, *rec]
)

func stepped(t *testing.T, initial int) (*runner.Scheduler[int, *rec], *runnertest.Stepper, *rec) {
	t.Helper()

	stepper := runnertest.NewStepper()
	s := runner.NewBlocking[int, *rec](initial,
		runner.WithName("stepper-"+t.Name()),
		runner.WithConfiner(stepper))
	r := runnertest.NewRecorder[int]()

	s.Start(r)
	require.Equal(t, 1, stepper.Len(), "Start queues its replay")
	require.True(t, stepper.Step())
	r.Reset()

	return s, stepper, r
}

func state(s *runner.Scheduler[int, *rec]) int {
	return runner.Project(s, func(n int) int { return n })
}

func TestStepper_NothingRunsUntilStep(t *testing.T) {
	t.Parallel()

	s, stepper, r := stepped(t, 0)
	called := false

	s.Exec(r, transition.Pure[int, *rec](123))
	s.Exec(r, transition.Moore[int, *rec](func(int) transition.Command[int, *rec] {
		called = true

		return transition.Enter[int, *rec](456)
	}))

	assert.Equal(t, 2, stepper.Len())
	assert.Equal(t, 0, state(s))

	require.True(t, stepper.Step())
	assert.Equal(t, 123, state(s))
	assert.False(t, called)

	require.True(t, stepper.Step())
	assert.Equal(t, 456, state(s))
	assert.True(t, called)

	assert.False(t, stepper.Step(), "the queue is empty")
	assert.Equal(t, []int{123, 456}, r.States())
}

func TestStepper_ForwardStaysInOneStep(t *testing.T) {
	t.Parallel()

	s, stepper, r := stepped(t, 0)

	s.Exec(r, transition.PureCommand(transition.Enter[int, *rec](123).
		Then(transition.Forward[int, *rec](transition.Pure[int, *rec](456)))))

	require.True(t, stepper.Step())
	assert.Equal(t, 456, state(s))
	assert.Zero(t, stepper.Len())
	assert.Equal(t, []int{123, 456}, r.States())
}

func TestStepper_AsyncResultIsTheNextStep(t *testing.T) {
	t.Parallel()

	s, stepper, r := stepped(t, 0)
	ran := false

	s.Exec(r, transition.PureAsync[int, *rec](func(context.Context) (act, error) {
		ran = true

		return transition.PureCommand(transition.EnterMany[int, *rec](1, 2, 3)), nil
	}))

	require.True(t, stepper.Step())
	assert.True(t, ran, "the thunk runs inline during the step")
	assert.Equal(t, 0, state(s))
	assert.Equal(t, 1, stepper.Len())

	require.True(t, stepper.Step())
	assert.Equal(t, 3, state(s))
	assert.Equal(t, []int{1, 2, 3}, r.States())
}

func TestStepper_DeferResultIsTheNextStep(t *testing.T) {
	t.Parallel()

	s, stepper, r := stepped(t, 0)

	s.Exec(r, transition.PureCommand(transition.Defer[int, *rec](func(k *transition.Continuation[int, *rec]) {
		go k.Ok(7)
	})))

	require.True(t, stepper.Step())
	assert.Equal(t, 0, state(s))

	require.True(t, stepper.Step())
	assert.Equal(t, 7, state(s))
}

func TestStepper_Drain(t *testing.T) {
	t.Parallel()

	s, stepper, r := stepped(t, 1)

	for range 5 {
		s.Exec(r, transition.PureFunc[int, *rec](func(n int) int { return n * 2 }))
	}

	assert.Equal(t, 5, stepper.Drain())
	assert.Equal(t, 32, state(s))
	assert.Zero(t, stepper.Drain())
}

func TestStepper_ExecBeforeReplayGoesToBacklog(t *testing.T) {
	t.Parallel()

	stepper := runnertest.NewStepper()
	s := runner.NewBlocking[int, *rec](0, runner.WithName("stepper-backlog"), runner.WithConfiner(stepper))
	r := runnertest.NewRecorder[int]()

	s.Start(r)
	s.Exec(r, transition.Pure[int, *rec](5))

	assert.Equal(t, 1, s.BacklogLen())
	assert.Equal(t, 1, stepper.Len())

	stepper.Step()

	assert.Equal(t, 5, state(s))
	assert.Equal(t, []int{5, 5}, r.States())
}
