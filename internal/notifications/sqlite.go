package notifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dleads/stakeados/internal/db"
	"github.com/dleads/stakeados/internal/model"
	"github.com/dleads/stakeados/internal/util/compression"
)

// SQLiteStore persists one preferences row per user. The category map is a
// JSON-encoded text column.
type SQLiteStore struct {
	db         db.DB
	compressor compression.Compressor
}

func NewSQLiteStore(database db.DB) *SQLiteStore {
	return &SQLiteStore{
		db:         database,
		compressor: compression.GzipCompressor{},
	}
}

func (s *SQLiteStore) GetUserPreferences(ctx context.Context, userID model.UserID) (*model.NotificationPreferences, error) {
	row := s.db.Get().QueryRowContext(ctx, `
		SELECT user_id, in_app, email, push, digest, quiet_hours_start,
		       quiet_hours_end, timezone, categories, updated_at
		FROM notification_preferences WHERE user_id = ?`, string(userID))

	prefs, err := scanPreferences(row)
	if err == sql.ErrNoRows {
		// First access: materialize defaults so later reads are stable.
		defaults := DefaultPreferences(userID)
		if err := s.upsert(ctx, defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading preferences for user %s: %w", userID, err)
	}
	return prefs, nil
}

func (s *SQLiteStore) UpdateUserPreferences(ctx context.Context, userID model.UserID, patch Patch) (*model.NotificationPreferences, error) {
	current, err := s.GetUserPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	applyPatch(current, patch)
	if err := validatePreferences(current); err != nil {
		return nil, err
	}

	if err := s.upsert(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *SQLiteStore) ResetToDefaults(ctx context.Context, userID model.UserID) (*model.NotificationPreferences, error) {
	defaults := DefaultPreferences(userID)
	if err := s.upsert(ctx, defaults); err != nil {
		return nil, err
	}
	notifLogger.Info().Str("user_id", string(userID)).Msg("Notification preferences reset to defaults")
	return defaults, nil
}

func (s *SQLiteStore) ExportPreferences(ctx context.Context, userID model.UserID) ([]byte, error) {
	current, err := s.GetUserPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("error encoding preferences: %w", err)
	}
	return s.compressor.Compress(data)
}

func (s *SQLiteStore) ImportPreferences(ctx context.Context, userID model.UserID, blob []byte) (*model.NotificationPreferences, error) {
	data, err := s.compressor.Decompress(blob)
	if err != nil {
		return nil, fmt.Errorf("error decompressing preferences blob: %w", err)
	}

	var imported model.NotificationPreferences
	if err := json.Unmarshal(data, &imported); err != nil {
		return nil, fmt.Errorf("error decoding preferences blob: %w", err)
	}

	imported.UserID = userID
	if imported.Categories == nil {
		imported.Categories = map[string]model.CategoryPreference{}
	}
	if err := validatePreferences(&imported); err != nil {
		return nil, err
	}

	if err := s.upsert(ctx, &imported); err != nil {
		return nil, err
	}
	return &imported, nil
}

func (s *SQLiteStore) AvailableTimezones() []string {
	return append([]string(nil), availableTimezones...)
}

func (s *SQLiteStore) upsert(ctx context.Context, p *model.NotificationPreferences) error {
	categories, err := json.Marshal(p.Categories)
	if err != nil {
		return fmt.Errorf("error encoding categories: %w", err)
	}

	_, err = s.db.Get().ExecContext(ctx, `
		INSERT INTO notification_preferences
			(user_id, in_app, email, push, digest, quiet_hours_start,
			 quiet_hours_end, timezone, categories, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			in_app = excluded.in_app,
			email = excluded.email,
			push = excluded.push,
			digest = excluded.digest,
			quiet_hours_start = excluded.quiet_hours_start,
			quiet_hours_end = excluded.quiet_hours_end,
			timezone = excluded.timezone,
			categories = excluded.categories,
			updated_at = excluded.updated_at`,
		string(p.UserID), p.InApp, p.Email, p.Push, string(p.Digest),
		p.QuietHoursStart, p.QuietHoursEnd, p.Timezone, string(categories), p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error upserting preferences for user %s: %w", p.UserID, err)
	}
	return nil
}

func scanPreferences(row *sql.Row) (*model.NotificationPreferences, error) {
	var p model.NotificationPreferences
	var categories string

	err := row.Scan(&p.UserID, &p.InApp, &p.Email, &p.Push, &p.Digest,
		&p.QuietHoursStart, &p.QuietHoursEnd, &p.Timezone, &categories, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(categories), &p.Categories); err != nil {
		return nil, fmt.Errorf("error decoding categories: %w", err)
	}
	if p.Categories == nil {
		p.Categories = map[string]model.CategoryPreference{}
	}
	return &p, nil
}
