package transition

import "strconv"

// Kind identifies one of the primitive commands.
type Kind uint8

const (
	// KindNoop requests nothing.
	KindNoop Kind = iota
	// KindReenter notifies the receiver with the current state.
	KindReenter
	// KindEnter replaces the state, then notifies the receiver.
	KindEnter
	// KindRaise hands an error to the receiver and ends the command.
	KindRaise
	// KindForward applies another action in the same step.
	KindForward
	// KindAsync runs a thunk on the worker and feeds its action back.
	KindAsync
	// KindDefer hands a continuation to an external callback.
	KindDefer
)

var kindNames = [...]string{ //nolint:gochecknoglobals
	KindNoop:    "Noop",
	KindReenter: "Reenter",
	KindEnter:   "Enter",
	KindRaise:   "Raise",
	KindForward: "Forward",
	KindAsync:   "Async",
	KindDefer:   "Defer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Suspends reports whether the kind yields control across goroutines.
func (k Kind) Suspends() bool {
	return k == KindAsync || k == KindDefer
}
