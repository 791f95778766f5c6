// Package notifications implements user notification preferences: delivery
// channel toggles, digest frequency, per-category overrides, and the
// quiet-hours window.
package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dleads/stakeados/internal/config"
	"github.com/dleads/stakeados/internal/model"
)

var notifLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	notifLogger = l
}

// Patch carries a partial preferences update; nil fields are left
// untouched. A non-nil Categories map merges per category.
type Patch struct {
	InApp           *bool
	Email           *bool
	Push            *bool
	Digest          *model.DigestFrequency
	QuietHoursStart *string
	QuietHoursEnd   *string
	Timezone        *string
	Categories      map[string]model.CategoryPreference
}

// Store is the preferences persistence collaborator. GetUserPreferences
// returns defaults for a user that has none yet.
type Store interface {
	GetUserPreferences(ctx context.Context, userID model.UserID) (*model.NotificationPreferences, error)
	UpdateUserPreferences(ctx context.Context, userID model.UserID, patch Patch) (*model.NotificationPreferences, error)
	ResetToDefaults(ctx context.Context, userID model.UserID) (*model.NotificationPreferences, error)

	ExportPreferences(ctx context.Context, userID model.UserID) ([]byte, error)
	ImportPreferences(ctx context.Context, userID model.UserID, blob []byte) (*model.NotificationPreferences, error)

	AvailableTimezones() []string
}

// DefaultPreferences mirrors the platform's configuration defaults.
func DefaultPreferences(userID model.UserID) *model.NotificationPreferences {
	return &model.NotificationPreferences{
		UserID:          userID,
		InApp:           true,
		Email:           true,
		Push:            false,
		Digest:          model.DigestFrequency(config.DefaultDigest),
		QuietHoursStart: config.DefaultQuietStart,
		QuietHoursEnd:   config.DefaultQuietEnd,
		Timezone:        config.DefaultTimezone,
		Categories:      map[string]model.CategoryPreference{},
		UpdatedAt:       time.Now().UTC(),
	}
}

// availableTimezones is the curated list offered in the settings UI.
var availableTimezones = []string{
	"UTC",
	"America/New_York",
	"America/Chicago",
	"America/Denver",
	"America/Los_Angeles",
	"America/Mexico_City",
	"America/Bogota",
	"America/Buenos_Aires",
	"America/Sao_Paulo",
	"Europe/London",
	"Europe/Madrid",
	"Europe/Paris",
	"Europe/Berlin",
	"Asia/Tokyo",
	"Asia/Singapore",
	"Asia/Dubai",
	"Australia/Sydney",
}

func applyPatch(p *model.NotificationPreferences, patch Patch) {
	if patch.InApp != nil {
		p.InApp = *patch.InApp
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.Push != nil {
		p.Push = *patch.Push
	}
	if patch.Digest != nil {
		p.Digest = *patch.Digest
	}
	if patch.QuietHoursStart != nil {
		p.QuietHoursStart = *patch.QuietHoursStart
	}
	if patch.QuietHoursEnd != nil {
		p.QuietHoursEnd = *patch.QuietHoursEnd
	}
	if patch.Timezone != nil {
		p.Timezone = *patch.Timezone
	}
	if patch.Categories != nil {
		if p.Categories == nil {
			p.Categories = map[string]model.CategoryPreference{}
		}
		for category, pref := range patch.Categories {
			p.Categories[category] = pref
		}
	}
	p.UpdatedAt = time.Now().UTC()
}

// validatePreferences rejects records that would break the quiet-hours
// computation or the digest scheduler. Used on update and import.
func validatePreferences(p *model.NotificationPreferences) error {
	switch p.Digest {
	case model.DigestNone, model.DigestDaily, model.DigestWeekly:
	default:
		return fmt.Errorf("invalid digest frequency %q", p.Digest)
	}

	if _, err := time.Parse("15:04", p.QuietHoursStart); err != nil {
		return fmt.Errorf("invalid quiet hours start %q: %w", p.QuietHoursStart, err)
	}
	if _, err := time.Parse("15:04", p.QuietHoursEnd); err != nil {
		return fmt.Errorf("invalid quiet hours end %q: %w", p.QuietHoursEnd, err)
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", p.Timezone, err)
	}

	for category, pref := range p.Categories {
		switch pref.Frequency {
		case model.CategoryImmediate, model.CategoryDaily, model.CategoryWeekly:
		default:
			return fmt.Errorf("invalid frequency %q for category %q", pref.Frequency, category)
		}
	}
	return nil
}
