package runnertest

import (
	"sync"

	"github.com/amp-labs/amp-transducer/confine"
)

// Stepper is a confiner that runs nothing on its own. Every confined task a
// scheduler submits waits in a queue until the test calls Step or Drain, so a
// test can walk a scheduler through one step at a time. Pass it to
// runner.WithConfiner, usually on a runner.NewBlocking scheduler.
//
// Start's replay is itself a step: actions executed before it runs go to the
// backlog.
type Stepper struct {
	mu    sync.Mutex
	tasks []func()
}

var _ confine.Confiner = (*Stepper)(nil)

func NewStepper() *Stepper {
	return &Stepper{}
}

// Run queues task.
func (s *Stepper) Run(task func()) {
	if task == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = append(s.tasks, task)
}

// Len returns the number of queued steps.
func (s *Stepper) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tasks)
}

// Step runs the oldest queued step on the calling goroutine. Steps it queues
// wait for a later call. It reports false if nothing was queued.
func (s *Stepper) Step() bool {
	s.mu.Lock()

	if len(s.tasks) == 0 {
		s.mu.Unlock()

		return false
	}

	task := s.tasks[0]
	s.tasks[0] = nil
	s.tasks = s.tasks[1:]
	s.mu.Unlock()

	task()

	return true
}

// Drain runs steps, including the ones they queue, until none are left. It
// returns how many ran.
func (s *Stepper) Drain() int {
	n := 0

	for s.Step() {
		n++
	}

	return n
}
