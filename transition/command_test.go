package transition

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// trace is a minimal receiver that records what an interpreter told it.
type trace struct {
	BaseReceiver[int]

	events []string
}

func (t *trace) OnEnter(state int) { t.events = append(t.events, fmt.Sprintf("enter %d", state)) }

func (t *trace) OnExit(old, next int) {
	t.events = append(t.events, fmt.Sprintf("exit %d->%d", old, next))
}

func (t *trace) Handle(err error) { t.events = append(t.events, "handle "+err.Error()) }

type (
	cmd   = Command[int, *trace]
	moore = Moore[int, *trace]
	mealy = Mealy[int, *trace]
)

// interpret is a synchronous interpreter for the kinds that need no
// scheduler. Suspending kinds are only recorded.
func interpret(state int, recv *trace, c cmd) int {
	for s := range c.All() {
		switch s.Kind() {
		case KindNoop:
		case KindReenter:
			recv.OnEnter(state)
		case KindEnter:
			next, _ := s.State()
			recv.OnExit(state, next)
			state = next
			recv.OnEnter(state)
		case KindRaise:
			recv.Handle(s.Err())

			return state
		case KindForward:
			state = interpret(state, recv, s.Action().Apply(state, recv))
		case KindAsync, KindDefer:
			recv.events = append(recv.events, s.Kind().String())
		}
	}

	return state
}

func effects(c cmd) []string {
	recv := &trace{}
	interpret(0, recv, c)

	return recv.events
}

func TestNoopIsZeroValue(t *testing.T) {
	t.Parallel()

	var zero cmd

	assert.True(t, zero.IsNoop())
	assert.True(t, Noop[int, *trace]().IsNoop())
	assert.Equal(t, KindNoop, zero.Kind())
	assert.Equal(t, "Noop", zero.String())
	assert.Empty(t, zero.Steps())
}

func TestMonoidLaw(t *testing.T) {
	t.Parallel()

	commands := []cmd{
		Noop[int, *trace](),
		Enter[int, *trace](1),
		Reenter[int, *trace](),
		EnterMany[int, *trace](2, 3),
		Forward[int, *trace](PureFunc[int, *trace](func(n int) int { return n * 10 })),
		Async[int, *trace](func(context.Context) (Action[int, *trace], error) { return nil, nil }),
		Raise[int, *trace](errBoom),
	}

	for i, a := range commands {
		for j, b := range commands {
			for k, c := range commands {
				left := a.Then(b).Then(c)
				right := a.Then(b.Then(c))

				assert.Equal(t, left.Kinds(), right.Kinds(), "kinds %d %d %d", i, j, k)
				assert.Equal(t, effects(left), effects(right), "effects %d %d %d", i, j, k)
			}
		}

		assert.Equal(t, a.Kinds(), a.Then(Noop[int, *trace]()).Kinds())
		assert.Equal(t, a.Kinds(), Noop[int, *trace]().Then(a).Kinds())
	}
}

func TestThenPreservesOrder(t *testing.T) {
	t.Parallel()

	left := Enter[int, *trace](1).Then(Enter[int, *trace](2))
	combined := left.Then(Reenter[int, *trace]())

	assert.Equal(t, []Kind{KindEnter, KindEnter, KindReenter}, combined.Kinds())
	assert.Equal(t, []string{"exit 0->1", "enter 1", "exit 1->2", "enter 2", "enter 2"}, effects(combined))

	// Composition does not alias the operands.
	_ = left.Then(Raise[int, *trace](errBoom))
	assert.Equal(t, []Kind{KindEnter, KindEnter}, left.Kinds())
}

func TestAfterMirrorsThen(t *testing.T) {
	t.Parallel()

	one := Enter[int, *trace](1)
	two := Enter[int, *trace](2)
	bump := PureFunc[int, *trace](func(n int) int { return n + 1 })
	thunk := Thunk[int, *trace](func(context.Context) (Action[int, *trace], error) { return nil, nil })

	assert.Equal(t, one.Then(two).Kinds(), two.After(one).Kinds())
	assert.Equal(t, []Kind{KindForward, KindEnter}, one.AfterAction(bump).Kinds())
	assert.Equal(t, []Kind{KindEnter, KindForward}, one.ThenAction(bump).Kinds())
	assert.Equal(t, []Kind{KindAsync, KindEnter}, one.AfterAsync(thunk).Kinds())
	assert.Equal(t, []Kind{KindEnter, KindAsync}, one.ThenAsync(thunk).Kinds())
}

func TestRaiseIsTerminal(t *testing.T) {
	t.Parallel()

	c := Enter[int, *trace](1).Then(Raise[int, *trace](errBoom)).Then(Enter[int, *trace](2))

	assert.Equal(t, []string{"exit 0->1", "enter 1", "handle boom"}, effects(c))
}

func TestNilOperandsAreNoop(t *testing.T) {
	t.Parallel()

	assert.True(t, Forward[int, *trace](nil).IsNoop())
	assert.True(t, Async[int, *trace](nil).IsNoop())
	assert.True(t, Defer[int, *trace](nil).IsNoop())
}

func TestAccessors(t *testing.T) {
	t.Parallel()

	state, ok := Enter[int, *trace](5).State()
	require.True(t, ok)
	assert.Equal(t, 5, state)

	_, ok = Reenter[int, *trace]().State()
	assert.False(t, ok)

	require.ErrorIs(t, Raise[int, *trace](errBoom).Err(), errBoom)
	require.NoError(t, Enter[int, *trace](1).Err())

	assert.NotNil(t, Forward[int, *trace](Pure[int, *trace](1)).Action())
	assert.Nil(t, Enter[int, *trace](1).Action())

	thunk := Thunk[int, *trace](func(context.Context) (Action[int, *trace], error) { return nil, nil })
	assert.NotNil(t, Async(thunk).Thunk())
	assert.Nil(t, Reenter[int, *trace]().Thunk())

	assert.NotNil(t, Defer[int, *trace](func(*Continuation[int, *trace]) {}).Callback())
	assert.Nil(t, Reenter[int, *trace]().Callback())
}

func TestCompoundConstructors(t *testing.T) {
	t.Parallel()

	thunk := Thunk[int, *trace](func(context.Context) (Action[int, *trace], error) { return nil, nil })
	callback := func(*Continuation[int, *trace]) {}

	assert.Equal(t, []Kind{KindEnter, KindAsync}, EnterThen(1, thunk).Kinds())
	assert.Equal(t, []Kind{KindEnter, KindDefer}, EnterThenDefer(1, callback).Kinds())
	assert.Equal(t, []Kind{KindReenter, KindAsync}, ReenterThen(thunk).Kinds())
	assert.Equal(t, []Kind{KindReenter, KindDefer}, ReenterThenDefer(callback).Kinds())
	assert.Equal(t, 3, EnterMany[int, *trace](1, 2, 3).Len())
}

func TestSteps(t *testing.T) {
	t.Parallel()

	c := Enter[int, *trace](1).Then(Raise[int, *trace](errBoom))
	steps := c.Steps()

	require.Len(t, steps, 2)
	assert.Equal(t, KindEnter, steps[0].Kind())
	assert.Equal(t, KindRaise, steps[1].Kind())
	assert.Equal(t, "Enter(1) -> Raise(boom)", c.String())

	var seen []Kind
	for s := range c.All() {
		seen = append(seen, s.Kind())

		break
	}

	assert.Equal(t, []Kind{KindEnter}, seen)
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Defer", KindDefer.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
	assert.True(t, KindAsync.Suspends())
	assert.True(t, KindDefer.Suspends())
	assert.False(t, KindForward.Suspends())
}
