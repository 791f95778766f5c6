// Package model defines core data structures and types for the content platform.
package model

import (
	"time"
)

type ArticleID string

type UserID string

// Locale is a platform-supported language code, e.g. "en" or "es".
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleES Locale = "es"
)

// DefaultLocales is the closed locale set every localized field carries.
var DefaultLocales = []Locale{LocaleEN, LocaleES}

// LocalizedText maps a locale to its text. Absent keys are read as empty,
// never as unset.
type LocalizedText map[Locale]string

// NewLocalizedText returns a LocalizedText with an empty entry per locale.
func NewLocalizedText(locales []Locale) LocalizedText {
	lt := make(LocalizedText, len(locales))
	for _, l := range locales {
		lt[l] = ""
	}
	return lt
}

// Get never fails: unknown locales read as the empty string.
func (lt LocalizedText) Get(locale Locale) string {
	return lt[locale]
}

// Set returns a new LocalizedText with the given locale updated.
// The receiver is left untouched.
func (lt LocalizedText) Set(locale Locale, value string) LocalizedText {
	out := make(LocalizedText, len(lt)+1)
	for k, v := range lt {
		out[k] = v
	}
	out[locale] = value
	return out
}

// Clone returns an independent copy of the mapping.
func (lt LocalizedText) Clone() LocalizedText {
	out := make(LocalizedText, len(lt))
	for k, v := range lt {
		out[k] = v
	}
	return out
}

type DraftStatus string

const (
	StatusDraft     DraftStatus = "draft"
	StatusReview    DraftStatus = "review"
	StatusPublished DraftStatus = "published"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Draft is the editable, possibly-unpersisted representation of an article.
// An empty ID means the draft has never been saved.
type Draft struct {
	ID              ArticleID     `json:"id,omitempty"`
	Title           LocalizedText `json:"title"`
	Content         LocalizedText `json:"content"`
	MetaDescription LocalizedText `json:"meta_description"`
	Category        string        `json:"category"`
	Tags            []string      `json:"tags"`
	Difficulty      Difficulty    `json:"difficulty"`
	FeaturedImage   string        `json:"featured_image,omitempty"`
	RelatedCourses  []string      `json:"related_courses"`
	Status          DraftStatus   `json:"status"`
}

// NewDraft returns an empty draft with every locale present in each
// localized field.
func NewDraft(locales []Locale) Draft {
	return Draft{
		Title:           NewLocalizedText(locales),
		Content:         NewLocalizedText(locales),
		MetaDescription: NewLocalizedText(locales),
		Tags:            []string{},
		Difficulty:      DifficultyBeginner,
		RelatedCourses:  []string{},
		Status:          StatusDraft,
	}
}

// CloneStrings copies a string slice while preserving nil-ness: an empty
// non-nil slice stays empty and non-nil. Dirty tracking compares drafts by
// their JSON form, where nil and empty serialize differently.
func CloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Clone returns a deep copy so callers cannot mutate manager state through
// shared maps or slices.
func (d Draft) Clone() Draft {
	out := d
	out.Title = d.Title.Clone()
	out.Content = d.Content.Clone()
	out.MetaDescription = d.MetaDescription.Clone()
	out.Tags = CloneStrings(d.Tags)
	out.RelatedCourses = CloneStrings(d.RelatedCourses)
	return out
}

// Article is the persisted record backing a draft. The server assigns
// ID and UpdatedAt; Status may additionally be "published".
type Article struct {
	ID              ArticleID     `json:"id"`
	Title           LocalizedText `json:"title"`
	Content         LocalizedText `json:"content"`
	MetaDescription LocalizedText `json:"meta_description"`
	Category        string        `json:"category"`
	Tags            []string      `json:"tags"`
	Difficulty      Difficulty    `json:"difficulty"`
	FeaturedImage   string        `json:"featured_image,omitempty"`
	RelatedCourses  []string      `json:"related_courses"`
	Status          DraftStatus   `json:"status"`
	Author          UserID        `json:"author_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ArticleVersion is an entry in an article's version history.
type ArticleVersion struct {
	ID            string    `json:"id"`
	ArticleID     ArticleID `json:"article_id"`
	ChangeSummary string    `json:"change_summary,omitempty"`
	SnapshotHash  string    `json:"snapshot_hash"`
	CreatedAt     time.Time `json:"created_at"`
}
