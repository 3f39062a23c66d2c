package runner

import (
	"github.com/amp-labs/amp-transducer/confine"
	"github.com/amp-labs/amp-transducer/executor"
	"github.com/amp-labs/amp-transducer/transition"
)

// NewBlocking returns a scheduler that runs thunks and joins inline on a
// serial confined context. Everything an Exec causes has happened by the time
// it returns. A Defer whose continuation is resumed from another goroutine
// blocks that Exec until the resume or the timeout.
func NewBlocking[S any, E transition.Receiver[S]](initial S, opts ...Option) *Scheduler[S, E] {
	all := make([]Option, 0, len(opts)+3) //nolint:mnd
	all = append(all,
		WithWorker(executor.Inline),
		WithJoiner(executor.Inline),
		WithConfiner(confine.NewSerial()))
	all = append(all, opts...)

	return New[S, E](initial, all...)
}
