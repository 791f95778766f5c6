package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dleads/stakeados/internal/model"
)

// Manager holds one user's notification preferences and keeps the local
// view consistent with the store. Updates apply locally first so the UI
// reacts immediately; if the store rejects the write the local state rolls
// back to the last confirmed snapshot.
type Manager struct {
	mu sync.Mutex

	store  Store
	userID model.UserID

	prefs     *model.NotificationPreferences
	confirmed *model.NotificationPreferences

	onError func(string)
	now     func() time.Time
}

type ManagerOptions struct {
	Store  Store
	UserID model.UserID

	// OnError receives a user-facing message when a persist fails.
	OnError func(string)

	// Now overrides the clock used for quiet-hours evaluation.
	Now func() time.Time
}

func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("notifications manager requires a store")
	}
	if opts.UserID == "" {
		return nil, fmt.Errorf("notifications manager requires a user id")
	}

	m := &Manager{
		store:   opts.Store,
		userID:  opts.UserID,
		onError: opts.OnError,
		now:     opts.Now,
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// Load fetches the user's preferences and resets the confirmed snapshot.
func (m *Manager) Load(ctx context.Context) error {
	prefs, err := m.store.GetUserPreferences(ctx, m.userID)
	if err != nil {
		m.reportError("Failed to load notification preferences")
		return fmt.Errorf("error loading preferences for user %s: %w", m.userID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = prefs
	confirmed := prefs.Clone()
	m.confirmed = &confirmed
	return nil
}

// UpdatePreferences applies the patch locally, then persists it. On store
// failure the local state reverts to the last confirmed snapshot, so a
// flipped toggle flips back instead of lying about being saved.
func (m *Manager) UpdatePreferences(ctx context.Context, patch Patch) error {
	m.mu.Lock()
	if m.prefs == nil {
		m.mu.Unlock()
		return fmt.Errorf("preferences not loaded for user %s", m.userID)
	}
	applyPatch(m.prefs, patch)
	m.mu.Unlock()

	saved, err := m.store.UpdateUserPreferences(ctx, m.userID, patch)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		rollback := m.confirmed.Clone()
		m.prefs = &rollback
		m.reportError("Failed to save notification preferences")
		return fmt.Errorf("error saving preferences for user %s: %w", m.userID, err)
	}

	// The store is canonical: it validated the patch and stamped UpdatedAt.
	m.prefs = saved
	confirmed := saved.Clone()
	m.confirmed = &confirmed
	return nil
}

// SetCategory toggles a single category subscription.
func (m *Manager) SetCategory(ctx context.Context, category string, pref model.CategoryPreference) error {
	return m.UpdatePreferences(ctx, Patch{
		Categories: map[string]model.CategoryPreference{category: pref},
	})
}

func (m *Manager) ResetToDefaults(ctx context.Context) error {
	prefs, err := m.store.ResetToDefaults(ctx, m.userID)
	if err != nil {
		m.reportError("Failed to reset notification preferences")
		return fmt.Errorf("error resetting preferences for user %s: %w", m.userID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = prefs
	confirmed := prefs.Clone()
	m.confirmed = &confirmed
	return nil
}

func (m *Manager) Export(ctx context.Context) ([]byte, error) {
	return m.store.ExportPreferences(ctx, m.userID)
}

// Import replaces the stored preferences with a previously exported blob
// and refreshes the local view.
func (m *Manager) Import(ctx context.Context, blob []byte) error {
	prefs, err := m.store.ImportPreferences(ctx, m.userID, blob)
	if err != nil {
		m.reportError("Failed to import notification preferences")
		return fmt.Errorf("error importing preferences for user %s: %w", m.userID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = prefs
	confirmed := prefs.Clone()
	m.confirmed = &confirmed
	return nil
}

// QuietHoursStatus evaluates the quiet-hours window against the manager's
// clock.
func (m *Manager) QuietHoursStatus() (QuietHoursStatus, error) {
	m.mu.Lock()
	if m.prefs == nil {
		m.mu.Unlock()
		return QuietHoursStatus{}, fmt.Errorf("preferences not loaded for user %s", m.userID)
	}
	start, end, tz := m.prefs.QuietHoursStart, m.prefs.QuietHoursEnd, m.prefs.Timezone
	m.mu.Unlock()

	return ComputeQuietHours(start, end, tz, m.now())
}

// Preferences returns a copy of the current local state.
func (m *Manager) Preferences() (model.NotificationPreferences, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prefs == nil {
		return model.NotificationPreferences{}, false
	}
	return m.prefs.Clone(), true
}

func (m *Manager) AvailableTimezones() []string {
	return m.store.AvailableTimezones()
}

func (m *Manager) reportError(msg string) {
	notifLogger.Error().Str("user_id", string(m.userID)).Msg(msg)
	if m.onError != nil {
		m.onError(msg)
	}
}
