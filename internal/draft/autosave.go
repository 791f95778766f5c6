package draft

import (
	"context"
	"sync"
	"time"
)

// DefaultAutosaveInterval is the debounce window when none is configured.
const DefaultAutosaveInterval = 30 * time.Second

// Autosaver persists a dirty draft after edits pause for the configured
// interval. It is a debounce, not a throttle: every further edit cancels
// and restarts the pending timer, so a continuously-edited draft never
// autosaves until typing stops. The timer handle is released on both
// normal fire and Close, so no callback outlives the session.
type Autosaver struct {
	mu sync.Mutex

	mgr      *Manager
	interval time.Duration
	timer    *time.Timer
	closed   bool
}

// NewAutosaver wires itself into the manager's change notifications.
// A non-positive interval selects DefaultAutosaveInterval.
func NewAutosaver(mgr *Manager, interval time.Duration) *Autosaver {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}

	a := &Autosaver{
		mgr:      mgr,
		interval: interval,
	}
	mgr.SetChangeNotifier(a.onDraftChange)
	return a
}

// onDraftChange re-evaluates the timer on every manager transition: armed
// while the draft is dirty and no save is in flight, disarmed otherwise.
// A failed save leaves the draft dirty, so the timer re-arms and the save
// is retried after another interval.
func (a *Autosaver) onDraftChange() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}

	if a.mgr.Dirty() && !a.mgr.Saving() {
		a.timer = time.AfterFunc(a.interval, a.fire)
	}
}

func (a *Autosaver) fire() {
	a.mu.Lock()
	a.timer = nil
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	// The saving flag is advisory: it is checked here, before invoking
	// the save, not enforced inside SaveDraft itself.
	if !a.mgr.Dirty() || a.mgr.Saving() {
		return
	}

	if _, err := a.mgr.SaveDraft(context.Background()); err != nil {
		draftLogger.Error().Err(err).Msg("Autosave failed")
	}
}

// Close cancels any pending timer unconditionally. Meant for session
// teardown; the Autosaver must not be reused afterwards.
func (a *Autosaver) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
