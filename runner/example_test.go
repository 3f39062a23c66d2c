package runner_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/amp-labs/amp-transducer/runner"
	"github.com/amp-labs/amp-transducer/transition"
)

type counter struct {
	transition.BaseReceiver[int]
}

func (*counter) OnEnter(n int) { fmt.Println("entered", n) }

func (*counter) Handle(err error) { fmt.Println("error:", err) }

func ExampleNewBlocking() {
	s := runner.NewBlocking[int, *counter](0)
	view := &counter{}

	add := func(k int) transition.Moore[int, *counter] {
		return transition.PureFunc[int, *counter](func(n int) int { return n + k })
	}

	s.Exec(view, add(1)) // stopped: queued
	s.Start(view)
	s.Exec(view, add(2).Then(add(3)))
	s.Exec(view, transition.PureAsync[int, *counter](func(context.Context) (transition.Action[int, *counter], error) {
		return nil, errors.New("fetch failed")
	}))

	fmt.Println("state", runner.Project(s, func(n int) int { return n }))

	// Output:
	// entered 1
	// entered 1
	// entered 3
	// entered 6
	// error: fetch failed
	// state 6
}

func ExampleScheduler_Bind() {
	s := runner.NewBlocking[int, *counter](10)
	h := s.Bind(&counter{})

	h.Start()
	h.Exec(transition.Pure[int, *counter](11))
	h.Detach()
	h.Exec(transition.Pure[int, *counter](12)) // reattaches the receiver

	fmt.Println(runner.Project(h, func(n int) int { return n * 2 }))

	// Output:
	// entered 10
	// entered 11
	// entered 12
	// 24
}
