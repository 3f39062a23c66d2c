package future

import (
	"runtime/debug"

	"github.com/amp-labs/amp-transducer/errors"
	"github.com/amp-labs/amp-transducer/logger"
)

// invokeCallback runs callback on its own goroutine. A panic is logged, not
// propagated.
func invokeCallback[T any](kind string, callback func(T), value T) {
	if callback == nil {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				err := errors.FromPanic(r, debug.Stack())
				logger.Get().Error("panic encountered in future."+kind+" callback", "error", err)
			}
		}()

		callback(value)
	}()
}
