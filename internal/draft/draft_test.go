package draft

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dleads/stakeados/internal/content"
	"github.com/dleads/stakeados/internal/model"
)

// flakyStore wraps a real store and fails a configurable number of writes.
type flakyStore struct {
	inner       content.Store
	failWrites  int32
	createCalls int32
	updateCalls int32
}

func (f *flakyStore) GetByID(ctx context.Context, id model.ArticleID) (*model.Article, error) {
	return f.inner.GetByID(ctx, id)
}

func (f *flakyStore) Create(ctx context.Context, a *model.Article) (*model.Article, error) {
	atomic.AddInt32(&f.createCalls, 1)
	if atomic.AddInt32(&f.failWrites, -1) >= 0 {
		return nil, errors.New("store unavailable")
	}
	return f.inner.Create(ctx, a)
}

func (f *flakyStore) Update(ctx context.Context, a *model.Article) (*model.Article, error) {
	atomic.AddInt32(&f.updateCalls, 1)
	if atomic.AddInt32(&f.failWrites, -1) >= 0 {
		return nil, errors.New("store unavailable")
	}
	return f.inner.Update(ctx, a)
}

func (f *flakyStore) CreateVersion(ctx context.Context, id model.ArticleID, summary string) (*model.ArticleVersion, error) {
	return f.inner.CreateVersion(ctx, id, summary)
}

func (f *flakyStore) ListVersions(ctx context.Context, id model.ArticleID) ([]model.ArticleVersion, error) {
	return f.inner.ListVersions(ctx, id)
}

func (f *flakyStore) writes() int32 {
	return atomic.LoadInt32(&f.createCalls) + atomic.LoadInt32(&f.updateCalls)
}

func newTestManager(t *testing.T) (*Manager, *flakyStore) {
	t.Helper()
	store := &flakyStore{inner: content.NewMemoryStore(), failWrites: -1 << 20}
	mgr, err := NewManager(Options{Store: store})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return mgr, store
}

func strPtr(s string) *string { return &s }

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestNewManagerRequiresStore(t *testing.T) {
	if _, err := NewManager(Options{}); err == nil {
		t.Error("Expected error constructing manager without a store")
	}
}

func TestUpdateDraft_DirtyIdempotence(t *testing.T) {
	mgr, _ := newTestManager(t)

	t.Run("Identical payload never flips dirty on", func(t *testing.T) {
		if mgr.Dirty() {
			t.Fatal("Expected a fresh draft to be clean")
		}

		// Same values the empty draft already has.
		mgr.UpdateDraft(Patch{Category: strPtr(""), Tags: []string{}})
		if mgr.Dirty() {
			t.Error("Expected identical payload to leave the draft clean")
		}
	})

	t.Run("Actual change marks dirty", func(t *testing.T) {
		mgr.UpdateDraft(Patch{Category: strPtr("defi")})
		if !mgr.Dirty() {
			t.Error("Expected a real change to mark the draft dirty")
		}
	})
}

func TestUpdateLocalizedField(t *testing.T) {
	mgr, _ := newTestManager(t)

	mgr.UpdateLocalizedField(FieldTitle, model.LocaleEN, "Hello")

	d := mgr.Draft()
	if d.Title.Get(model.LocaleEN) != "Hello" {
		t.Errorf("Expected English title 'Hello', got %q", d.Title.Get(model.LocaleEN))
	}
	if d.Title.Get(model.LocaleES) != "" {
		t.Errorf("Expected Spanish title untouched, got %q", d.Title.Get(model.LocaleES))
	}
	if !mgr.Dirty() {
		t.Error("Expected localized edit to mark the draft dirty")
	}
}

func TestUpdateDraft_TagsDeduplicated(t *testing.T) {
	mgr, _ := newTestManager(t)

	mgr.UpdateDraft(Patch{Tags: []string{"defi", "nft", "defi"}})

	d := mgr.Draft()
	if len(d.Tags) != 2 || d.Tags[0] != "defi" || d.Tags[1] != "nft" {
		t.Errorf("Expected deduplicated tags in insertion order, got %v", d.Tags)
	}
}

func TestSaveDraft_ClearsDirtyAndSkipsWhenClean(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	mgr.UpdateLocalizedField(FieldTitle, model.LocaleEN, "Staking 101")

	saved, err := mgr.SaveDraft(ctx)
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if saved == nil || saved.ID == "" {
		t.Fatal("Expected a created article with an id")
	}
	if mgr.Dirty() {
		t.Error("Expected dirty to clear after a successful save")
	}
	if mgr.Draft().ID != saved.ID {
		t.Error("Expected the assigned id to land in the draft")
	}
	if mgr.LastSaved().IsZero() {
		t.Error("Expected a save timestamp")
	}

	writesBefore := store.writes()
	again, err := mgr.SaveDraft(ctx)
	if err != nil {
		t.Fatalf("Second SaveDraft failed: %v", err)
	}
	if again != nil {
		t.Error("Expected a clean persisted draft to save as a no-op")
	}
	if store.writes() != writesBefore {
		t.Error("Expected no network call for a clean persisted draft")
	}
}

func TestSaveDraft_EmptyListFieldsStayClean(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	// Empty (not absent) list fields must survive the save snapshot with
	// their serialized form intact, or the draft re-dirties itself.
	mgr.UpdateLocalizedField(FieldTitle, model.LocaleEN, "Staking 101")
	mgr.UpdateDraft(Patch{Tags: []string{}, RelatedCourses: []string{}})

	if _, err := mgr.SaveDraft(ctx); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if mgr.Dirty() {
		t.Error("Expected dirty to clear after saving a draft with empty list fields")
	}

	writesBefore := store.writes()
	if saved, err := mgr.SaveDraft(ctx); err != nil || saved != nil {
		t.Errorf("Expected a skipped save, got (%v, %v)", saved, err)
	}
	if store.writes() != writesBefore {
		t.Error("Expected no write for an untouched draft")
	}
}

func TestSaveDraft_NeverSavedAlwaysProceeds(t *testing.T) {
	mgr, store := newTestManager(t)

	// Clean but never persisted: the initial create still happens.
	saved, err := mgr.SaveDraft(context.Background())
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if saved == nil || saved.ID == "" {
		t.Fatal("Expected the empty unsaved draft to be created")
	}
	if store.createCalls != 1 {
		t.Errorf("Expected exactly one create, got %d", store.createCalls)
	}
}

func TestSaveDraft_FailureKeepsDirtyAndRetries(t *testing.T) {
	store := &flakyStore{inner: content.NewMemoryStore(), failWrites: 1}

	var errMsg string
	mgr, err := NewManager(Options{
		Store:   store,
		OnError: func(msg string) { errMsg = msg },
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	mgr.UpdateLocalizedField(FieldContent, model.LocaleEN, "some content")

	if _, err := mgr.SaveDraft(context.Background()); err == nil {
		t.Fatal("Expected the first save to fail")
	}
	if !mgr.Dirty() {
		t.Error("Expected dirty to stay set after a failed save")
	}
	if mgr.Saving() {
		t.Error("Expected saving flag to clear after a failed save")
	}
	if !strings.Contains(errMsg, "Failed to save draft") {
		t.Errorf("Expected error callback to fire, got %q", errMsg)
	}

	saved, err := mgr.SaveDraft(context.Background())
	if err != nil {
		t.Fatalf("Expected the retry to succeed, got %v", err)
	}
	if saved == nil || mgr.Dirty() {
		t.Error("Expected the retry to persist and clear dirty")
	}
}

func TestLoadDraft_RoundTripIsClean(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	seed := &model.Article{
		Title:           model.NewLocalizedText(model.DefaultLocales).Set(model.LocaleEN, "Seed"),
		Content:         model.NewLocalizedText(model.DefaultLocales).Set(model.LocaleEN, "Body"),
		MetaDescription: model.NewLocalizedText(model.DefaultLocales),
		Category:        "defi",
		Tags:            []string{"a"},
		Difficulty:      model.DifficultyIntermediate,
		RelatedCourses:  []string{},
		Status:          model.StatusDraft,
	}
	created, err := store.inner.Create(ctx, seed)
	if err != nil {
		t.Fatalf("Seeding store failed: %v", err)
	}

	if err := mgr.LoadDraft(ctx, created.ID); err != nil {
		t.Fatalf("LoadDraft failed: %v", err)
	}
	if mgr.Dirty() {
		t.Error("Expected a freshly loaded draft to be clean")
	}

	writesBefore := store.writes()
	saved, err := mgr.SaveDraft(ctx)
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if saved != nil || store.writes() != writesBefore {
		t.Error("Expected load-then-save with no mutations to be a no-op")
	}
}

func TestLoadDraft_FailureLeavesStateUntouched(t *testing.T) {
	var errMsg string
	store := &flakyStore{inner: content.NewMemoryStore(), failWrites: -1 << 20}
	mgr, err := NewManager(Options{
		Store:   store,
		OnError: func(msg string) { errMsg = msg },
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	mgr.UpdateLocalizedField(FieldTitle, model.LocaleEN, "Kept")

	if err := mgr.LoadDraft(context.Background(), "does-not-exist"); err == nil {
		t.Fatal("Expected loading a missing article to fail")
	}
	if !strings.Contains(errMsg, "Failed to load draft") {
		t.Errorf("Expected error callback to fire, got %q", errMsg)
	}
	if mgr.Draft().Title.Get(model.LocaleEN) != "Kept" {
		t.Error("Expected prior draft state to survive a failed load")
	}
	if !mgr.Dirty() {
		t.Error("Expected dirty flag to survive a failed load")
	}
}

func TestLoadDraft_NarrowsPublishedToReview(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	seed := testPublishedArticle()
	created, err := store.inner.Create(ctx, seed)
	if err != nil {
		t.Fatalf("Seeding store failed: %v", err)
	}

	if err := mgr.LoadDraft(ctx, created.ID); err != nil {
		t.Fatalf("LoadDraft failed: %v", err)
	}

	if got := mgr.Draft().Status; got != model.StatusReview {
		t.Fatalf("Expected published article to load as review, got %q", got)
	}

	// A plain save after an edit writes review, never published.
	mgr.UpdateLocalizedField(FieldContent, model.LocaleEN, "edited body")
	if _, err := mgr.SaveDraft(ctx); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	persisted, err := store.inner.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if persisted.Status != model.StatusReview {
		t.Errorf("Expected persisted status review, got %q", persisted.Status)
	}
}

func testPublishedArticle() *model.Article {
	return &model.Article{
		Title:           model.NewLocalizedText(model.DefaultLocales).Set(model.LocaleEN, "Live"),
		Content:         model.NewLocalizedText(model.DefaultLocales).Set(model.LocaleEN, "Published body"),
		MetaDescription: model.NewLocalizedText(model.DefaultLocales),
		Category:        "news",
		Tags:            []string{"live"},
		Difficulty:      model.DifficultyBeginner,
		RelatedCourses:  []string{},
		Status:          model.StatusPublished,
	}
}

func TestCreateVersion(t *testing.T) {
	t.Run("Requires a saved draft", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		if _, err := mgr.CreateVersion(context.Background(), "initial"); err == nil {
			t.Error("Expected error versioning an unsaved draft")
		}
	})

	t.Run("Saves first, then records the version", func(t *testing.T) {
		mgr, store := newTestManager(t)
		ctx := context.Background()

		mgr.UpdateLocalizedField(FieldTitle, model.LocaleEN, "v1")
		if _, err := mgr.SaveDraft(ctx); err != nil {
			t.Fatalf("SaveDraft failed: %v", err)
		}

		mgr.UpdateLocalizedField(FieldTitle, model.LocaleEN, "v2")
		version, err := mgr.CreateVersion(ctx, "retitled")
		if err != nil {
			t.Fatalf("CreateVersion failed: %v", err)
		}
		if version.ChangeSummary != "retitled" {
			t.Errorf("Expected change summary to carry, got %q", version.ChangeSummary)
		}
		if mgr.Dirty() {
			t.Error("Expected CreateVersion to save pending edits first")
		}

		persisted, _ := store.inner.GetByID(ctx, mgr.Draft().ID)
		if persisted.Title.Get(model.LocaleEN) != "v2" {
			t.Error("Expected the version to be cut after the pending save")
		}
	})
}

func TestResetDraft(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	mgr.UpdateLocalizedField(FieldTitle, model.LocaleEN, "something")
	if _, err := mgr.SaveDraft(ctx); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	mgr.ResetDraft()

	d := mgr.Draft()
	if d.ID != "" {
		t.Error("Expected reset to forget the persisted id")
	}
	if d.Title.Get(model.LocaleEN) != "" {
		t.Error("Expected reset to clear fields")
	}
	if mgr.Dirty() {
		t.Error("Expected reset draft to be clean")
	}
	if !mgr.LastSaved().IsZero() {
		t.Error("Expected reset to clear the save timestamp")
	}
}

func TestWordCountAndReadingTime(t *testing.T) {
	testCases := []struct {
		name        string
		content     string
		wantWords   int
		wantMinutes int
	}{
		{"Empty content", "", 0, 1},
		{"Whitespace only", "   \n\t  ", 0, 1},
		{"A few words", "one two three", 3, 1},
		{"Exactly one page", words(200), 200, 1},
		{"Just over one page", words(201), 201, 2},
		{"Two pages", words(400), 400, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mgr, _ := newTestManager(t)
			mgr.UpdateLocalizedField(FieldContent, model.LocaleEN, tc.content)

			if got := mgr.WordCount(model.LocaleEN); got != tc.wantWords {
				t.Errorf("WordCount: got %d, want %d", got, tc.wantWords)
			}
			if got := mgr.ReadingTime(model.LocaleEN); got != tc.wantMinutes {
				t.Errorf("ReadingTime: got %d, want %d", got, tc.wantMinutes)
			}
		})
	}
}

func TestSaveDraft_MutationDuringSaveBelongsToNextSave(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	store := &blockingStore{inner: content.NewMemoryStore(), entered: entered, release: release}

	mgr, err := NewManager(Options{Store: store})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	mgr.UpdateLocalizedField(FieldTitle, model.LocaleEN, "first")

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := mgr.SaveDraft(context.Background()); err != nil {
			t.Errorf("SaveDraft failed: %v", err)
		}
	}()

	<-entered
	// Edit while the save is in flight.
	mgr.UpdateLocalizedField(FieldTitle, model.LocaleEN, "second")
	close(release)
	<-done

	if !mgr.Dirty() {
		t.Error("Expected the mid-save edit to leave the draft dirty for the next save")
	}

	saved, err := mgr.SaveDraft(context.Background())
	if err != nil {
		t.Fatalf("Follow-up save failed: %v", err)
	}
	if saved == nil || saved.Title.Get(model.LocaleEN) != "second" {
		t.Error("Expected the next save to capture the mid-save edit")
	}
	if mgr.Dirty() {
		t.Error("Expected the draft to be clean after the follow-up save")
	}
}

type blockingStore struct {
	inner   content.Store
	entered chan struct{}
	release chan struct{}
	once    atomic.Bool
}

func (b *blockingStore) GetByID(ctx context.Context, id model.ArticleID) (*model.Article, error) {
	return b.inner.GetByID(ctx, id)
}

func (b *blockingStore) Create(ctx context.Context, a *model.Article) (*model.Article, error) {
	if b.once.CompareAndSwap(false, true) {
		close(b.entered)
		<-b.release
	}
	return b.inner.Create(ctx, a)
}

func (b *blockingStore) Update(ctx context.Context, a *model.Article) (*model.Article, error) {
	return b.inner.Update(ctx, a)
}

func (b *blockingStore) CreateVersion(ctx context.Context, id model.ArticleID, summary string) (*model.ArticleVersion, error) {
	return b.inner.CreateVersion(ctx, id, summary)
}

func (b *blockingStore) ListVersions(ctx context.Context, id model.ArticleID) ([]model.ArticleVersion, error) {
	return b.inner.ListVersions(ctx, id)
}
