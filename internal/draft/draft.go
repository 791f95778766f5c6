// Package draft implements the editable article draft: dirty tracking against
// the last persisted snapshot, debounced autosave, and publish validation.
package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dleads/stakeados/internal/content"
	"github.com/dleads/stakeados/internal/model"
)

var draftLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	draftLogger = l
}

// ReadingSpeedWPM is the assumed reading speed for the reading-time estimate.
const ReadingSpeedWPM = 200

// Field identifies one of the draft's localized text fields.
type Field string

const (
	FieldTitle           Field = "title"
	FieldContent         Field = "content"
	FieldMetaDescription Field = "meta_description"
)

// Options configures a Manager. Store is required; everything else has a
// sensible zero value.
type Options struct {
	Store   content.Store
	Locales []model.Locale

	// OnError receives a human-readable message for every caught I/O
	// failure. Injected rather than global so instances test independently.
	OnError func(message string)

	// OnSaved fires after every successful persist with the saved id.
	OnSaved func(id model.ArticleID)

	Author model.UserID
}

// Manager owns one editable draft and its persistence lifecycle. The draft
// is dirty iff its serialized form differs from the serialization recorded
// at the last successful save or load.
type Manager struct {
	mu sync.Mutex

	store   content.Store
	locales []model.Locale
	onError func(string)
	onSaved func(model.ArticleID)
	author  model.UserID

	draft     model.Draft
	baseline  string
	dirty     bool
	saving    bool
	lastSaved time.Time

	// notify observes every state transition; the Autosaver hooks in here.
	notify func()
}

func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("draft manager requires a content store")
	}

	locales := opts.Locales
	if len(locales) == 0 {
		locales = model.DefaultLocales
	}

	m := &Manager{
		store:   opts.Store,
		locales: locales,
		onError: opts.OnError,
		onSaved: opts.OnSaved,
		author:  opts.Author,
	}
	m.draft = model.NewDraft(locales)
	m.baseline = serialize(m.draft)
	return m, nil
}

// SetChangeNotifier registers a function called after every state
// transition (mutation, load, save completion, reset).
func (m *Manager) SetChangeNotifier(notify func()) {
	m.mu.Lock()
	m.notify = notify
	m.mu.Unlock()
}

// Patch carries a partial draft update; nil fields are left untouched.
type Patch struct {
	Title           *model.LocalizedText
	Content         *model.LocalizedText
	MetaDescription *model.LocalizedText
	Category        *string
	Tags            []string
	Difficulty      *model.Difficulty
	FeaturedImage   *string
	RelatedCourses  []string
	Status          *model.DraftStatus
}

// UpdateDraft shallow-merges the patch into the draft. The draft is marked
// dirty only when the merge actually changes its serialized form relative
// to the last-saved baseline; an identical payload leaves the dirty flag
// untouched.
func (m *Manager) UpdateDraft(patch Patch) {
	m.mu.Lock()

	if patch.Title != nil {
		m.draft.Title = patch.Title.Clone()
	}
	if patch.Content != nil {
		m.draft.Content = patch.Content.Clone()
	}
	if patch.MetaDescription != nil {
		m.draft.MetaDescription = patch.MetaDescription.Clone()
	}
	if patch.Category != nil {
		m.draft.Category = *patch.Category
	}
	if patch.Tags != nil {
		m.draft.Tags = dedupeTags(patch.Tags)
	}
	if patch.Difficulty != nil {
		m.draft.Difficulty = *patch.Difficulty
	}
	if patch.FeaturedImage != nil {
		m.draft.FeaturedImage = *patch.FeaturedImage
	}
	if patch.RelatedCourses != nil {
		m.draft.RelatedCourses = model.CloneStrings(patch.RelatedCourses)
	}
	if patch.Status != nil {
		m.draft.Status = *patch.Status
	}

	if serialize(m.draft) != m.baseline {
		m.dirty = true
	}

	notify := m.notify
	m.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// UpdateLocalizedField updates a single locale of one localized field.
func (m *Manager) UpdateLocalizedField(field Field, locale model.Locale, value string) {
	m.mu.Lock()
	current := m.localizedField(field)
	m.mu.Unlock()

	updated := current.Set(locale, value)

	switch field {
	case FieldTitle:
		m.UpdateDraft(Patch{Title: &updated})
	case FieldContent:
		m.UpdateDraft(Patch{Content: &updated})
	case FieldMetaDescription:
		m.UpdateDraft(Patch{MetaDescription: &updated})
	}
}

func (m *Manager) localizedField(field Field) model.LocalizedText {
	switch field {
	case FieldTitle:
		return m.draft.Title
	case FieldContent:
		return m.draft.Content
	case FieldMetaDescription:
		return m.draft.MetaDescription
	default:
		return nil
	}
}

// LoadDraft replaces the draft with the persisted article. On failure the
// prior state is left untouched. A persisted "published" status is narrowed
// to "review": a loaded draft can never silently re-publish through a plain
// save.
func (m *Manager) LoadDraft(ctx context.Context, id model.ArticleID) error {
	article, err := m.store.GetByID(ctx, id)
	if err == nil && article == nil {
		err = fmt.Errorf("article not found: %s", id)
	}
	if err != nil {
		m.reportError(fmt.Sprintf("Failed to load draft: %v", err))
		return err
	}

	m.mu.Lock()
	m.draft = m.draftFromArticle(article)
	m.baseline = serialize(m.draft)
	m.dirty = false
	m.saving = false
	m.lastSaved = time.Now()
	notify := m.notify
	m.mu.Unlock()

	if notify != nil {
		notify()
	}
	return nil
}

// SaveDraft persists the draft and returns the stored article. It returns
// (nil, nil) without touching the network when the draft is clean and has
// already been persisted; a never-saved draft always proceeds so the initial
// create happens even when nothing was typed. On failure the dirty flag is
// left set so the next autosave tick or manual call retries.
func (m *Manager) SaveDraft(ctx context.Context) (*model.Article, error) {
	m.mu.Lock()
	if !m.dirty && m.draft.ID != "" {
		m.mu.Unlock()
		return nil, nil
	}

	snapshot := m.draft.Clone()
	m.saving = true
	m.mu.Unlock()

	article := m.articleFromDraft(snapshot)

	var saved *model.Article
	var err error
	if snapshot.ID == "" {
		saved, err = m.store.Create(ctx, article)
	} else {
		saved, err = m.store.Update(ctx, article)
	}

	if err != nil {
		m.mu.Lock()
		m.saving = false
		notify := m.notify
		m.mu.Unlock()

		m.reportError(fmt.Sprintf("Failed to save draft: %v", err))
		if notify != nil {
			notify()
		}
		return nil, err
	}

	m.mu.Lock()
	if m.draft.ID == "" {
		m.draft.ID = saved.ID
	}
	snapshot.ID = saved.ID
	// A mutation that landed mid-save belongs to the next save, not this
	// one: the baseline is the snapshot that actually went out.
	m.baseline = serialize(snapshot)
	m.dirty = serialize(m.draft) != m.baseline
	m.saving = false
	m.lastSaved = time.Now()
	notify := m.notify
	m.mu.Unlock()

	if notify != nil {
		notify()
	}
	if m.onSaved != nil {
		m.onSaved(saved.ID)
	}
	return saved, nil
}

// ResetDraft restores the empty initial draft and forgets the save history.
func (m *Manager) ResetDraft() {
	m.mu.Lock()
	m.draft = model.NewDraft(m.locales)
	m.baseline = serialize(m.draft)
	m.dirty = false
	m.saving = false
	m.lastSaved = time.Time{}
	notify := m.notify
	m.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// CreateVersion records an entry in the article's version history. The
// draft must have been saved at least once; the current state is saved
// first so the version points at what the user sees.
func (m *Manager) CreateVersion(ctx context.Context, changeSummary string) (*model.ArticleVersion, error) {
	m.mu.Lock()
	id := m.draft.ID
	m.mu.Unlock()

	if id == "" {
		return nil, fmt.Errorf("cannot create a version of an unsaved draft")
	}

	if _, err := m.SaveDraft(ctx); err != nil {
		return nil, err
	}

	version, err := m.store.CreateVersion(ctx, id, changeSummary)
	if err != nil {
		m.reportError(fmt.Sprintf("Failed to create version: %v", err))
		return nil, err
	}
	return version, nil
}

// WordCount counts non-empty whitespace-separated tokens of the content
// field in the given locale.
func (m *Manager) WordCount(locale model.Locale) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CountWords(m.draft.Content.Get(locale))
}

// ReadingTime estimates reading time in minutes, never below one.
func (m *Manager) ReadingTime(locale model.Locale) int {
	words := m.WordCount(locale)
	minutes := (words + ReadingSpeedWPM - 1) / ReadingSpeedWPM
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// Validate runs the validation engine over the current draft.
func (m *Manager) Validate() ValidationResult {
	m.mu.Lock()
	d := m.draft.Clone()
	m.mu.Unlock()
	return Validate(d)
}

// Draft returns a copy of the current draft state.
func (m *Manager) Draft() model.Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft.Clone()
}

func (m *Manager) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

func (m *Manager) Saving() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saving
}

// LastSaved returns the time of the last successful save or load; the zero
// time means the draft has never been persisted.
func (m *Manager) LastSaved() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSaved
}

func (m *Manager) draftFromArticle(a *model.Article) model.Draft {
	d := model.Draft{
		ID:              a.ID,
		Title:           a.Title.Clone(),
		Content:         a.Content.Clone(),
		MetaDescription: a.MetaDescription.Clone(),
		Category:        a.Category,
		Tags:            dedupeTags(a.Tags),
		Difficulty:      a.Difficulty,
		FeaturedImage:   a.FeaturedImage,
		RelatedCourses:  model.CloneStrings(a.RelatedCourses),
		Status:          a.Status,
	}

	// Re-editing a published article must not let a save re-publish it.
	if d.Status == model.StatusPublished {
		d.Status = model.StatusReview
	}

	// Every supported locale has an entry, absent keys read as empty.
	for _, l := range m.locales {
		if _, ok := d.Title[l]; !ok {
			d.Title = d.Title.Set(l, "")
		}
		if _, ok := d.Content[l]; !ok {
			d.Content = d.Content.Set(l, "")
		}
		if _, ok := d.MetaDescription[l]; !ok {
			d.MetaDescription = d.MetaDescription.Set(l, "")
		}
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if d.RelatedCourses == nil {
		d.RelatedCourses = []string{}
	}
	return d
}

func (m *Manager) articleFromDraft(d model.Draft) *model.Article {
	return &model.Article{
		ID:              d.ID,
		Title:           d.Title,
		Content:         d.Content,
		MetaDescription: d.MetaDescription,
		Category:        d.Category,
		Tags:            d.Tags,
		Difficulty:      d.Difficulty,
		FeaturedImage:   d.FeaturedImage,
		RelatedCourses:  d.RelatedCourses,
		Status:          d.Status,
		Author:          m.author,
	}
}

func (m *Manager) reportError(msg string) {
	draftLogger.Error().Msg(msg)
	if m.onError != nil {
		m.onError(msg)
	}
}

// serialize produces the canonical form used for dirty comparison. JSON
// object keys are emitted sorted, so equal drafts serialize equally.
func serialize(d model.Draft) string {
	data, err := json.Marshal(d)
	if err != nil {
		// Draft contains only maps, slices, and strings; this cannot fail.
		draftLogger.Error().Err(err).Msg("Failed to serialize draft")
		return ""
	}
	return string(data)
}

// CountWords counts non-empty whitespace-separated tokens.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

func dedupeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
