package model

import "time"

type DigestFrequency string

const (
	DigestNone   DigestFrequency = "none"
	DigestDaily  DigestFrequency = "daily"
	DigestWeekly DigestFrequency = "weekly"
)

type CategoryFrequency string

const (
	CategoryImmediate CategoryFrequency = "immediate"
	CategoryDaily     CategoryFrequency = "daily"
	CategoryWeekly    CategoryFrequency = "weekly"
)

// CategoryPreference overrides delivery for a single content category.
type CategoryPreference struct {
	Enabled   bool              `json:"enabled"`
	Frequency CategoryFrequency `json:"frequency"`
}

// NotificationPreferences holds a user's delivery settings. QuietHoursStart
// and QuietHoursEnd are "HH:MM" (24h) times interpreted in Timezone; the
// window may wrap past midnight.
type NotificationPreferences struct {
	UserID          UserID                        `json:"user_id"`
	InApp           bool                          `json:"in_app"`
	Email           bool                          `json:"email"`
	Push            bool                          `json:"push"`
	Digest          DigestFrequency               `json:"digest"`
	QuietHoursStart string                        `json:"quiet_hours_start"`
	QuietHoursEnd   string                        `json:"quiet_hours_end"`
	Timezone        string                        `json:"timezone"`
	Categories      map[string]CategoryPreference `json:"categories"`
	UpdatedAt       time.Time                     `json:"updated_at"`
}

// Clone returns an independent copy, including the category map.
func (p NotificationPreferences) Clone() NotificationPreferences {
	out := p
	out.Categories = make(map[string]CategoryPreference, len(p.Categories))
	for k, v := range p.Categories {
		out.Categories[k] = v
	}
	return out
}
