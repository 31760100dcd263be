package core

import (
	"reflect"
	"testing"

	"github.com/example/marksync/internal/core/db"
)

func remoteBookmark() db.Bookmark {
	return db.Bookmark{
		ID:           "bk-1",
		URL:          "https://example.com/post",
		Title:        "Remote title",
		SiteName:     "example.com",
		Type:         db.TypeArticle,
		IsFavorite:   false,
		IsArchived:   false,
		ReadProgress: 10,
		Labels:       []string{"a"},
		State:        db.StateLoaded,
		CreatedAt:    "2025-01-01T00:00:00Z",
	}
}

func pending(actionType db.ActionType) db.PendingAction {
	return db.PendingAction{
		ID:         "act-" + string(actionType),
		BookmarkID: "bk-1",
		Type:       actionType,
		Payload:    "{}",
		CreatedAt:  "2025-01-02T00:00:00Z",
	}
}

// TestMergeRemoteAuthoritative tests that without pending actions the remote
// record wins completely.
func TestMergeRemoteAuthoritative(t *testing.T) {
	local := remoteBookmark()
	local.Title = "Stale local title"
	local.IsFavorite = true

	got := Merge(remoteBookmark(), &local, nil)

	if got.Title != "Remote title" {
		t.Errorf("expected remote title, got %q", got.Title)
	}
	if got.IsFavorite {
		t.Error("expected remote favorite value")
	}
}

// TestMergePreservesPendingFields tests field pinning per pending action.
func TestMergePreservesPendingFields(t *testing.T) {
	t.Run("favorite pinned regardless of remote value", func(t *testing.T) {
		for _, localValue := range []bool{true, false} {
			local := remoteBookmark()
			local.IsFavorite = localValue
			remote := remoteBookmark()
			remote.IsFavorite = !localValue

			got := Merge(remote, &local, []db.PendingAction{pending(db.ActionToggleFavorite)})
			if got.IsFavorite != localValue {
				t.Errorf("expected favorite %v preserved, got %v", localValue, got.IsFavorite)
			}
		}
	})

	t.Run("archive pinned", func(t *testing.T) {
		local := remoteBookmark()
		local.IsArchived = true
		got := Merge(remoteBookmark(), &local, []db.PendingAction{pending(db.ActionToggleArchive)})
		if !got.IsArchived {
			t.Error("expected archived preserved")
		}
	})

	t.Run("progress pinned for both read and progress actions", func(t *testing.T) {
		for _, at := range []db.ActionType{db.ActionToggleRead, db.ActionUpdateProgress} {
			local := remoteBookmark()
			local.ReadProgress = 80
			got := Merge(remoteBookmark(), &local, []db.PendingAction{pending(at)})
			if got.ReadProgress != 80 {
				t.Errorf("%s: expected progress 80, got %d", at, got.ReadProgress)
			}
		}
	})

	t.Run("labels pinned", func(t *testing.T) {
		local := remoteBookmark()
		local.Labels = []string{"a", "b"}
		remote := remoteBookmark()
		remote.Labels = []string{"a"}

		got := Merge(remote, &local, []db.PendingAction{pending(db.ActionUpdateLabels)})
		if !reflect.DeepEqual(got.Labels, []string{"a", "b"}) {
			t.Errorf("expected labels [a b] preserved, got %v", got.Labels)
		}
	})

	t.Run("title pinned", func(t *testing.T) {
		local := remoteBookmark()
		local.Title = "My title"
		got := Merge(remoteBookmark(), &local, []db.PendingAction{pending(db.ActionUpdateTitle)})
		if got.Title != "My title" {
			t.Errorf("expected local title preserved, got %q", got.Title)
		}
	})

	t.Run("unpinned fields still come from remote", func(t *testing.T) {
		local := remoteBookmark()
		local.IsFavorite = true
		local.Title = "Local title"
		remote := remoteBookmark()
		remote.Title = "Fresh remote title"

		got := Merge(remote, &local, []db.PendingAction{pending(db.ActionToggleFavorite)})
		if got.Title != "Fresh remote title" {
			t.Errorf("expected remote title for unpinned field, got %q", got.Title)
		}
		if !got.IsFavorite {
			t.Error("expected pinned favorite")
		}
	})
}

// TestMergeDelete tests the delete action's local-deleted marking.
func TestMergeDelete(t *testing.T) {
	t.Run("marks local deletion, remote fields untouched", func(t *testing.T) {
		local := remoteBookmark()
		local.IsLocalDeleted = true
		got := Merge(remoteBookmark(), &local, []db.PendingAction{pending(db.ActionDelete)})
		if !got.IsLocalDeleted {
			t.Error("expected local deletion marked")
		}
		if got.Title != "Remote title" {
			t.Errorf("expected remote title untouched, got %q", got.Title)
		}
	})

	t.Run("marks deletion even on first sighting", func(t *testing.T) {
		got := Merge(remoteBookmark(), nil, []db.PendingAction{pending(db.ActionDelete)})
		if !got.IsLocalDeleted {
			t.Error("expected deletion marked with nil local")
		}
	})
}

// TestMergeFirstSighting tests that field-pinning is skipped with no local row.
func TestMergeFirstSighting(t *testing.T) {
	got := Merge(remoteBookmark(), nil, []db.PendingAction{
		pending(db.ActionToggleFavorite),
		pending(db.ActionUpdateTitle),
	})
	if got.IsFavorite != remoteBookmark().IsFavorite {
		t.Error("expected remote favorite on first sighting")
	}
	if got.Title != "Remote title" {
		t.Errorf("expected remote title on first sighting, got %q", got.Title)
	}
}

// TestMergeIgnoresForeignActions tests that actions for other bookmarks have
// no effect.
func TestMergeIgnoresForeignActions(t *testing.T) {
	local := remoteBookmark()
	local.IsFavorite = true
	foreign := pending(db.ActionToggleFavorite)
	foreign.BookmarkID = "bk-other"

	got := Merge(remoteBookmark(), &local, []db.PendingAction{foreign})
	if got.IsFavorite {
		t.Error("expected foreign action ignored")
	}
}

// TestMergeClampsProgress tests the read-progress invariant.
func TestMergeClampsProgress(t *testing.T) {
	remote := remoteBookmark()
	remote.ReadProgress = 150
	got := Merge(remote, nil, nil)
	if got.ReadProgress != 100 {
		t.Errorf("expected progress clamped to 100, got %d", got.ReadProgress)
	}

	local := remoteBookmark()
	local.ReadProgress = -5
	got = Merge(remoteBookmark(), &local, []db.PendingAction{pending(db.ActionUpdateProgress)})
	if got.ReadProgress != 0 {
		t.Errorf("expected pinned progress clamped to 0, got %d", got.ReadProgress)
	}
}

// TestMergeIdempotent tests that merging the same inputs twice produces the
// same output, and that the inputs are not mutated.
func TestMergeIdempotent(t *testing.T) {
	remote := remoteBookmark()
	local := remoteBookmark()
	local.Labels = []string{"a", "b"}
	actions := []db.PendingAction{pending(db.ActionUpdateLabels), pending(db.ActionDelete)}

	first := Merge(remote, &local, actions)
	second := Merge(remote, &local, actions)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical outputs, got %+v vs %+v", first, second)
	}

	// Mutating the output must not leak into the local record.
	first.Labels[0] = "mutated"
	if local.Labels[0] != "a" {
		t.Error("expected merge output to own its label slice")
	}
}
