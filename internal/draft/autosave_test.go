package draft

import (
	"fmt"
	"testing"
	"time"

	"github.com/dleads/stakeados/internal/content"
	"github.com/dleads/stakeados/internal/model"
)

func TestAutosave_DebounceCollapsesBursts(t *testing.T) {
	mgr, store := newTestManager(t)

	saver := NewAutosaver(mgr, 80*time.Millisecond)
	defer saver.Close()

	// A burst of edits, each well inside the interval.
	for i := 0; i < 5; i++ {
		mgr.UpdateLocalizedField(FieldTitle, model.LocaleEN, fmt.Sprintf("draft %d", i))
		time.Sleep(15 * time.Millisecond)
	}

	// Less than one interval after the last edit: nothing saved yet.
	time.Sleep(30 * time.Millisecond)
	if store.writes() != 0 {
		t.Fatalf("Expected no save before the interval elapses, got %d", store.writes())
	}

	// Well past one interval after the last edit: exactly one save.
	time.Sleep(150 * time.Millisecond)
	if got := store.writes(); got != 1 {
		t.Errorf("Expected the burst to collapse into one save, got %d", got)
	}
	if mgr.Dirty() {
		t.Error("Expected the draft to be clean after the autosave")
	}
	if mgr.Draft().Title.Get(model.LocaleEN) != "draft 4" {
		t.Error("Expected the autosave to capture the last edit")
	}
}

func TestAutosave_NotArmedWhenClean(t *testing.T) {
	mgr, store := newTestManager(t)

	saver := NewAutosaver(mgr, 20*time.Millisecond)
	defer saver.Close()

	time.Sleep(80 * time.Millisecond)
	if store.writes() != 0 {
		t.Errorf("Expected no autosave for an untouched draft, got %d", store.writes())
	}
}

func TestAutosave_CloseCancelsPendingTimer(t *testing.T) {
	mgr, store := newTestManager(t)

	saver := NewAutosaver(mgr, 40*time.Millisecond)

	mgr.UpdateLocalizedField(FieldTitle, model.LocaleEN, "about to be torn down")
	saver.Close()

	time.Sleep(120 * time.Millisecond)
	if store.writes() != 0 {
		t.Errorf("Expected teardown to cancel the pending save, got %d", store.writes())
	}
	if !mgr.Dirty() {
		t.Error("Expected the draft to stay dirty after teardown")
	}
}

func TestAutosave_RetriesAfterFailure(t *testing.T) {
	store := &flakyStore{inner: content.NewMemoryStore(), failWrites: 1}
	mgr, err := NewManager(Options{Store: store})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	saver := NewAutosaver(mgr, 30*time.Millisecond)
	defer saver.Close()

	mgr.UpdateLocalizedField(FieldContent, model.LocaleEN, "needs persistence")

	// First tick fails, the draft stays dirty, and the timer re-arms.
	deadline := time.After(2 * time.Second)
	for mgr.Dirty() {
		select {
		case <-deadline:
			t.Fatal("Expected autosave to retry and eventually succeed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if store.writes() < 2 {
		t.Errorf("Expected at least one failed attempt plus one retry, got %d", store.writes())
	}
}

func TestAutosave_DefaultInterval(t *testing.T) {
	mgr, _ := newTestManager(t)

	saver := NewAutosaver(mgr, 0)
	defer saver.Close()

	if saver.interval != DefaultAutosaveInterval {
		t.Errorf("Expected default interval %v, got %v", DefaultAutosaveInterval, saver.interval)
	}
}
