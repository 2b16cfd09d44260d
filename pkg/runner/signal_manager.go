package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// signalRaceWindow is how long CheckRace waits for a pending cancellation.
const signalRaceWindow = 100 * time.Millisecond

// SignalManager scopes interactive turns to an interrupt-aware context.
// Each REPL turn runs under Context(); after an intercepted Ctrl+C the
// listener is re-armed with Reset so the next turn can be interrupted too.
type SignalManager struct {
	ctx  context.Context
	stop context.CancelFunc
}

// NewSignalManager starts listening for SIGINT and SIGTERM immediately.
func NewSignalManager() *SignalManager {
	sm := &SignalManager{}
	sm.Reset()
	return sm
}

// Context returns the current signal-scoped context.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Reset re-arms the listener after a handled signal. The previous context
// is released first, so at most one registration is live.
func (sm *SignalManager) Reset() {
	if sm.stop != nil {
		sm.stop()
	}
	sm.ctx, sm.stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Stop permanently releases the signal registration.
func (sm *SignalManager) Stop() {
	if sm.stop != nil {
		sm.stop()
	}
}

// CheckRace gives a trailing cancellation a moment to land. On Windows
// terminals Ctrl+C surfaces as a stdin EOF or read error slightly before
// the signal context is cancelled; waiting here lets callers distinguish
// an interrupted read from a genuine input error.
func (sm *SignalManager) CheckRace() {
	if sm.ctx.Err() != nil {
		return
	}
	select {
	case <-sm.ctx.Done():
	case <-time.After(signalRaceWindow):
	}
}
