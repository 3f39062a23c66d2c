// Package shutdown cancels a context on SIGINT or SIGTERM, after giving
// registered hooks a chance to clean up while the context is still alive.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/amp-labs/amp-transducer/logger"
)

// Handler owns the signal subscription for one context.
type Handler struct {
	mu      sync.Mutex
	hooks   []func()
	trigger chan os.Signal
	done    chan struct{}
}

// SetupHandler returns a child of ctx that is cancelled once SIGINT or
// SIGTERM arrives, Shutdown is called, or ctx itself ends.
func SetupHandler(ctx context.Context) (context.Context, *Handler) {
	h := &Handler{
		trigger: make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}
	signal.Notify(h.trigger, syscall.SIGINT, syscall.SIGTERM)

	// The child keeps ctx's values but not its cancellation, which is
	// forwarded only after the hooks ran.
	child, cancel := context.WithCancel(context.WithoutCancel(ctx))

	go func() {
		defer close(h.done)

		select {
		case sig := <-h.trigger:
			logger.Get(child).Warn("Received " + sig.String() + ", shutting down...")
		case <-ctx.Done():
		}

		signal.Stop(h.trigger)
		h.cleanup()
		cancel()
	}()

	return child, h
}

// BeforeShutdown registers a hook. Hooks run in registration order before
// the context is cancelled.
func (h *Handler) BeforeShutdown(hook func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hooks = append(h.hooks, hook)
}

// Shutdown starts the shutdown as if SIGINT had arrived. Extra calls are
// ignored.
func (h *Handler) Shutdown() {
	select {
	case h.trigger <- os.Interrupt:
	default:
	}
}

// Wait blocks until the hooks have run and the context is cancelled.
func (h *Handler) Wait() {
	<-h.done
}

func (h *Handler) cleanup() {
	h.mu.Lock()
	hooks := h.hooks
	h.hooks = nil
	h.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}
