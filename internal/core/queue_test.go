package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/example/marksync/internal/core/db"
)

func newTestStore(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedBookmark(t *testing.T, store *db.DB, id string) db.Bookmark {
	t.Helper()
	b := db.Bookmark{
		ID:        id,
		URL:       "https://example.com/" + id,
		Title:     "Bookmark " + id,
		Type:      db.TypeArticle,
		Labels:    []string{},
		State:     db.StateLoaded,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := store.UpsertBookmark(b); err != nil {
		t.Fatalf("failed to seed bookmark %s: %v", id, err)
	}
	return b
}

// newTestQueue builds a queue with a deterministic clock and id sequence so
// ordering assertions are stable.
func newTestQueue(store *db.DB) *Queue {
	q := NewQueue(store)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	q.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	seq := 0
	q.newID = func() string {
		seq++
		return fmt.Sprintf("act-%d", seq)
	}
	return q
}

// TestQueueOptimisticState tests that every mutation lands on the local row
// immediately.
func TestQueueOptimisticState(t *testing.T) {
	store := newTestStore(t)
	seedBookmark(t, store, "bk-1")
	q := newTestQueue(store)

	if err := q.SetFavorite("bk-1", true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}
	if err := q.SetProgress("bk-1", 140); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}
	if err := q.SetLabels("bk-1", []string{"go", "sync"}); err != nil {
		t.Fatalf("SetLabels failed: %v", err)
	}
	if err := q.SetTitle("bk-1", "Renamed"); err != nil {
		t.Fatalf("SetTitle failed: %v", err)
	}

	b, err := store.GetBookmark("bk-1")
	if err != nil {
		t.Fatalf("GetBookmark failed: %v", err)
	}
	if !b.IsFavorite {
		t.Error("expected optimistic favorite")
	}
	if b.ReadProgress != 100 {
		t.Errorf("expected progress clamped to 100, got %d", b.ReadProgress)
	}
	if len(b.Labels) != 2 || b.Labels[0] != "go" {
		t.Errorf("expected labels [go sync], got %v", b.Labels)
	}
	if b.Title != "Renamed" {
		t.Errorf("expected optimistic title, got %q", b.Title)
	}
}

// TestQueueCoalescing tests that repeated mutations of the same kind keep one
// queue row carrying the latest payload.
func TestQueueCoalescing(t *testing.T) {
	store := newTestStore(t)
	seedBookmark(t, store, "bk-1")
	q := newTestQueue(store)

	if err := q.SetFavorite("bk-1", true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}
	if err := q.SetFavorite("bk-1", false); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}
	if err := q.SetFavorite("bk-1", true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}

	actions, err := store.ListPendingActions()
	if err != nil {
		t.Fatalf("ListPendingActions failed: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected 1 coalesced action, got %d", len(actions))
	}
	payload, err := actions[0].DecodePayload()
	if err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if payload.Flag == nil || !*payload.Flag {
		t.Error("expected latest favorite value true in payload")
	}
}

// TestQueueDistinctTypesStack tests that different kinds for the same bookmark
// each keep their own row.
func TestQueueDistinctTypesStack(t *testing.T) {
	store := newTestStore(t)
	seedBookmark(t, store, "bk-1")
	q := newTestQueue(store)

	if err := q.SetFavorite("bk-1", true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}
	if err := q.SetArchived("bk-1", true); err != nil {
		t.Fatalf("SetArchived failed: %v", err)
	}
	if err := q.SetRead("bk-1", true); err != nil {
		t.Fatalf("SetRead failed: %v", err)
	}

	actions, err := store.ListPendingActions()
	if err != nil {
		t.Fatalf("ListPendingActions failed: %v", err)
	}
	if len(actions) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(actions))
	}
	// Replay order follows issue order.
	want := []db.ActionType{db.ActionToggleFavorite, db.ActionToggleArchive, db.ActionToggleRead}
	for i, action := range actions {
		if action.Type != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], action.Type)
		}
	}
}

// TestQueueDeleteSupersedes tests that a delete wipes every other queued
// action and soft-deletes the row.
func TestQueueDeleteSupersedes(t *testing.T) {
	store := newTestStore(t)
	seedBookmark(t, store, "bk-1")
	seedBookmark(t, store, "bk-2")
	q := newTestQueue(store)

	if err := q.SetFavorite("bk-1", true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}
	if err := q.SetTitle("bk-1", "Doomed"); err != nil {
		t.Fatalf("SetTitle failed: %v", err)
	}
	if err := q.SetFavorite("bk-2", true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}
	if err := q.Delete("bk-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	actions, err := store.ListPendingActions()
	if err != nil {
		t.Fatalf("ListPendingActions failed: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("expected delete plus unrelated action, got %d rows", len(actions))
	}
	for _, action := range actions {
		if action.BookmarkID == "bk-1" && action.Type != db.ActionDelete {
			t.Errorf("expected only a delete queued for bk-1, found %s", action.Type)
		}
	}

	b, err := store.GetBookmark("bk-1")
	if err != nil {
		t.Fatalf("GetBookmark failed: %v", err)
	}
	if !b.IsLocalDeleted {
		t.Error("expected soft-deleted local row")
	}
}

// TestQueueSetReadPayload tests the read toggle's progress encoding.
func TestQueueSetReadPayload(t *testing.T) {
	store := newTestStore(t)
	seedBookmark(t, store, "bk-1")
	q := newTestQueue(store)

	if err := q.SetRead("bk-1", true); err != nil {
		t.Fatalf("SetRead failed: %v", err)
	}
	actions, err := store.ListPendingActions()
	if err != nil {
		t.Fatalf("ListPendingActions failed: %v", err)
	}
	payload, err := actions[0].DecodePayload()
	if err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if payload.Progress == nil || *payload.Progress != 100 {
		t.Errorf("expected progress 100 for read, got %v", payload.Progress)
	}
	if payload.Timestamp == "" {
		t.Error("expected a timestamp on the read payload")
	}

	if err := q.SetRead("bk-1", false); err != nil {
		t.Fatalf("SetRead failed: %v", err)
	}
	actions, _ = store.ListPendingActions()
	if len(actions) != 1 {
		t.Fatalf("expected the read toggle to coalesce, got %d rows", len(actions))
	}
	payload, _ = actions[0].DecodePayload()
	if payload.Progress == nil || *payload.Progress != 0 {
		t.Errorf("expected progress 0 for unread, got %v", payload.Progress)
	}
}

// TestQueueUnknownBookmark tests that mutations require a local row.
func TestQueueUnknownBookmark(t *testing.T) {
	store := newTestStore(t)
	q := newTestQueue(store)

	if err := q.SetFavorite("missing", true); err == nil {
		t.Error("expected an error for an unknown bookmark")
	}
}
