package cli

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// Unlike signal.NotifyContext it remembers which signal arrived.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() {
			signal.Stop(sc.sigCh)
		})
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// NewLogger returns the text logger on stderr, or JSON on w for server modes.
// An empty level silences the logger.
func NewLogger(level string, jsonOut io.Writer) *slog.Logger {
	if level == "" || level == "off" {
		return logging.NewNop()
	}
	lvl := logging.ParseLevel(level)
	if jsonOut != nil {
		return logging.NewJSON(jsonOut, lvl)
	}
	return logging.New(lvl)
}

// RequestSettings builds the per-request context from flags and the
// credentials found in the environment.
func RequestSettings(providerName, model string, creds map[string]string) domain.RequestContext {
	return domain.RequestContext{
		Provider:    providerName,
		Model:       model,
		Credentials: maps.Clone(creds),
	}
}
