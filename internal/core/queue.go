package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/marksync/internal/core/db"
)

// Queue is the pending-action queue manager. Every mutation applies
// optimistically to the local bookmark row and enqueues (or coalesces) the
// matching pending action in the same store transaction; the store's
// ActionQueued event is the fire-and-forget signal for the scheduler to run
// an action-sync pass soon.
type Queue struct {
	store *db.DB

	// Overridable for tests.
	now   func() time.Time
	newID func() string
}

func NewQueue(store *db.DB) *Queue {
	return &Queue{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// enqueue loads the bookmark, applies the optimistic local mutation, and
// writes both the mutated row and the action atomically.
func (q *Queue) enqueue(bookmarkID string, actionType db.ActionType, payload db.ActionPayload, mutate func(*db.Bookmark)) error {
	b, err := q.store.GetBookmark(bookmarkID)
	if err != nil {
		return err
	}
	mutate(&b)

	encoded, err := db.EncodePayload(payload)
	if err != nil {
		return err
	}
	action := db.PendingAction{
		ID:         q.newID(),
		BookmarkID: bookmarkID,
		Type:       actionType,
		Payload:    encoded,
		CreatedAt:  q.now().UTC().Format(time.RFC3339Nano),
	}

	if err := q.store.EnqueueAction(b, action); err != nil {
		return fmt.Errorf("failed to enqueue %s for %s: %w", actionType, bookmarkID, err)
	}
	return nil
}

// SetFavorite toggles the favorite flag.
func (q *Queue) SetFavorite(bookmarkID string, favorite bool) error {
	return q.enqueue(bookmarkID, db.ActionToggleFavorite,
		db.ActionPayload{Flag: &favorite},
		func(b *db.Bookmark) { b.IsFavorite = favorite })
}

// SetArchived toggles the archived flag.
func (q *Queue) SetArchived(bookmarkID string, archived bool) error {
	return q.enqueue(bookmarkID, db.ActionToggleArchive,
		db.ActionPayload{Flag: &archived},
		func(b *db.Bookmark) { b.IsArchived = archived })
}

// SetRead marks the bookmark fully read or unread. Read state is read
// progress under the hood, so replay shares the progress edit path.
func (q *Queue) SetRead(bookmarkID string, read bool) error {
	progress := 0
	if read {
		progress = 100
	}
	return q.enqueue(bookmarkID, db.ActionToggleRead,
		db.ActionPayload{Progress: &progress, Timestamp: q.now().UTC().Format(time.RFC3339Nano)},
		func(b *db.Bookmark) { b.ReadProgress = progress })
}

// SetProgress records read progress, clamped to [0, 100].
func (q *Queue) SetProgress(bookmarkID string, progress int) error {
	progress = db.ClampProgress(progress)
	return q.enqueue(bookmarkID, db.ActionUpdateProgress,
		db.ActionPayload{Progress: &progress, Timestamp: q.now().UTC().Format(time.RFC3339Nano)},
		func(b *db.Bookmark) { b.ReadProgress = progress })
}

// SetLabels replaces the bookmark's label set.
func (q *Queue) SetLabels(bookmarkID string, labels []string) error {
	if labels == nil {
		labels = []string{}
	}
	return q.enqueue(bookmarkID, db.ActionUpdateLabels,
		db.ActionPayload{Labels: labels},
		func(b *db.Bookmark) { b.Labels = append([]string(nil), labels...) })
}

// SetTitle renames the bookmark.
func (q *Queue) SetTitle(bookmarkID string, title string) error {
	return q.enqueue(bookmarkID, db.ActionUpdateTitle,
		db.ActionPayload{Title: &title},
		func(b *db.Bookmark) { b.Title = title })
}

// Delete soft-deletes the bookmark locally and queues a Delete action.
// Delete supersedes every other queued action for the bookmark: the store
// removes them before inserting the Delete row.
func (q *Queue) Delete(bookmarkID string) error {
	return q.enqueue(bookmarkID, db.ActionDelete,
		db.ActionPayload{},
		func(b *db.Bookmark) { b.IsLocalDeleted = true })
}
