package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dleads/stakeados/internal/cache"
	"github.com/dleads/stakeados/internal/model"
	"github.com/dleads/stakeados/internal/util/compression"
)

// MemoryStore keeps preferences in process memory; it backs tests and
// single-node deployments without a database.
type MemoryStore struct {
	prefs      *cache.Cache[model.UserID, model.NotificationPreferences]
	compressor compression.Compressor
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		prefs:      cache.NewCache[model.UserID, model.NotificationPreferences](),
		compressor: compression.GzipCompressor{},
	}
}

func (m *MemoryStore) GetUserPreferences(_ context.Context, userID model.UserID) (*model.NotificationPreferences, error) {
	if p, ok := m.prefs.Get(userID); ok {
		out := p.Clone()
		return &out, nil
	}

	defaults := DefaultPreferences(userID)
	m.prefs.Set(userID, defaults.Clone())
	return defaults, nil
}

func (m *MemoryStore) UpdateUserPreferences(ctx context.Context, userID model.UserID, patch Patch) (*model.NotificationPreferences, error) {
	current, err := m.GetUserPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	applyPatch(current, patch)
	if err := validatePreferences(current); err != nil {
		return nil, err
	}

	m.prefs.Set(userID, current.Clone())
	return current, nil
}

func (m *MemoryStore) ResetToDefaults(_ context.Context, userID model.UserID) (*model.NotificationPreferences, error) {
	defaults := DefaultPreferences(userID)
	m.prefs.Set(userID, defaults.Clone())
	return defaults, nil
}

func (m *MemoryStore) ExportPreferences(ctx context.Context, userID model.UserID) ([]byte, error) {
	current, err := m.GetUserPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("error encoding preferences: %w", err)
	}
	return m.compressor.Compress(data)
}

func (m *MemoryStore) ImportPreferences(_ context.Context, userID model.UserID, blob []byte) (*model.NotificationPreferences, error) {
	data, err := m.compressor.Decompress(blob)
	if err != nil {
		return nil, fmt.Errorf("error decompressing preferences blob: %w", err)
	}

	var imported model.NotificationPreferences
	if err := json.Unmarshal(data, &imported); err != nil {
		return nil, fmt.Errorf("error decoding preferences blob: %w", err)
	}

	// The blob may come from another account; the import target wins.
	imported.UserID = userID
	if imported.Categories == nil {
		imported.Categories = map[string]model.CategoryPreference{}
	}
	if err := validatePreferences(&imported); err != nil {
		return nil, err
	}

	m.prefs.Set(userID, imported.Clone())
	out := imported.Clone()
	return &out, nil
}

func (m *MemoryStore) AvailableTimezones() []string {
	return append([]string(nil), availableTimezones...)
}
