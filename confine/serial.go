package confine

import (
	"sync"
)

// Serial is a trampolining confiner. A caller that finds it idle becomes the
// drainer and runs queued tasks on its own goroutine until the queue is empty;
// callers that find it busy only enqueue. A task that calls Run again is
// queued behind the current one instead of recursing.
//
// If a task panics, the panic propagates to the goroutine that was draining,
// the drain is released and the remaining tasks run on the next Run.
type Serial struct {
	mu       sync.Mutex
	queue    []func()
	draining bool
}

var _ Confiner = (*Serial)(nil)

// NewSerial returns an idle serial confiner.
func NewSerial() *Serial {
	return &Serial{}
}

// Run queues task and, if nobody else is draining, drains the queue.
func (s *Serial) Run(task func()) {
	if task == nil {
		return
	}

	s.mu.Lock()
	s.queue = append(s.queue, task)

	if s.draining {
		s.mu.Unlock()

		return
	}

	s.draining = true
	s.mu.Unlock()

	s.drain()
}

// Len returns the number of tasks waiting to run.
func (s *Serial) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.queue)
}

func (s *Serial) drain() {
	released := false

	defer func() {
		if !released {
			s.mu.Lock()
			s.draining = false
			s.mu.Unlock()
		}
	}()

	for {
		s.mu.Lock()

		if len(s.queue) == 0 {
			s.draining = false
			released = true
			s.queue = nil
			s.mu.Unlock()

			return
		}

		task := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		task()
	}
}
