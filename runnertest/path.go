package runnertest

import (
	"slices"
	"sync"

	"github.com/amp-labs/amp-transducer/transition"
)

// Path records the kinds of command primitives a scheduler interprets. Pass
// Record to runner.WithCommandHook.
type Path struct {
	mu    sync.Mutex
	kinds []transition.Kind
	read  int
}

func NewPath() *Path {
	return &Path{}
}

// Record appends kind.
func (p *Path) Record(kind transition.Kind) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.kinds = append(p.kinds, kind)
}

// Kinds returns every recorded kind, consumed or not.
func (p *Path) Kinds() []transition.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.kinds)
}

// Next consumes the oldest kind not yet returned by Next.
func (p *Path) Next() (transition.Kind, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.read >= len(p.kinds) {
		return transition.KindNoop, false
	}

	kind := p.kinds[p.read]
	p.read++

	return kind, true
}

// Empty reports whether Next has consumed everything recorded so far.
func (p *Path) Empty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.read >= len(p.kinds)
}
