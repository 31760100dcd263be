package db

import (
	"database/sql"
	"fmt"
)

// ------------------------------
// Pending action queue methods
// ------------------------------

// EnqueueAction writes the optimistically mutated bookmark row and the queued
// action in one transaction. If an action of the same type already exists for
// the bookmark, its payload and created_at are replaced in place (the row id
// is kept), so at most one row per (bookmark, type) pair ever exists.
//
// Emits BookmarkUpsertedEvent and ActionQueuedEvent after the commit; the
// latter is the fire-and-forget "run action-sync soon" signal.
func (db *DB) EnqueueAction(b Bookmark, a PendingAction) error {
	if a.Type == ActionDelete {
		return db.EnqueueDelete(b, a)
	}

	bookmarkArgs, err := upsertBookmarkArgs(b)
	if err != nil {
		return err
	}

	tx, err := db.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.Exec(upsertBookmarkSQL, bookmarkArgs...); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to upsert bookmark %s: %w", b.ID, err)
	}
	if _, err := tx.Exec(`
		INSERT INTO pending_actions (id, bookmark_id, action_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (bookmark_id, action_type) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at
	`, a.ID, a.BookmarkID, string(a.Type), a.Payload, a.CreatedAt); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to enqueue action: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	db.emit(BookmarkUpsertedEvent{Bookmark: b})

	// Re-read the row so the event carries the coalesced row's actual id.
	queued, err := db.getAction(a.BookmarkID, a.Type)
	if err != nil {
		queued = a
	}
	db.emit(ActionQueuedEvent{Action: queued})
	return nil
}

// EnqueueDelete applies delete supremacy: every other pending action for the
// bookmark is removed, the bookmark is soft-deleted locally, and a single
// Delete action is queued — all in one transaction.
func (db *DB) EnqueueDelete(b Bookmark, a PendingAction) error {
	superseded, err := db.listActionsForBookmark(b.ID)
	if err != nil {
		return err
	}

	b.IsLocalDeleted = true
	bookmarkArgs, err := upsertBookmarkArgs(b)
	if err != nil {
		return err
	}

	tx, err := db.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM pending_actions WHERE bookmark_id = ?", b.ID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to remove superseded actions for %s: %w", b.ID, err)
	}
	if _, err := tx.Exec(upsertBookmarkSQL, bookmarkArgs...); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to upsert bookmark %s: %w", b.ID, err)
	}
	if _, err := tx.Exec(`
		INSERT INTO pending_actions (id, bookmark_id, action_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.BookmarkID, string(ActionDelete), a.Payload, a.CreatedAt); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to enqueue delete action: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, s := range superseded {
		db.emit(ActionSettledEvent{Action: s, Status: SettledSuperseded})
	}
	db.emit(BookmarkUpsertedEvent{Bookmark: b})
	db.emit(ActionQueuedEvent{Action: a})
	return nil
}

// ListPendingActions returns the whole queue in replay order: ascending
// created_at, with insertion order breaking same-instant ties.
func (db *DB) ListPendingActions() ([]PendingAction, error) {
	rows, err := db.db.Query(`
		SELECT id, bookmark_id, action_type, payload, created_at
		FROM pending_actions
		ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending actions: %w", err)
	}
	defer rows.Close()
	return scanActions(rows)
}

// SettleAction removes an action from the queue and emits ActionSettledEvent
// with the given status (applied or dropped).
func (db *DB) SettleAction(a PendingAction, status string) error {
	res, err := db.db.Exec("DELETE FROM pending_actions WHERE id = ?", a.ID)
	if err != nil {
		return fmt.Errorf("failed to settle action %s: %w", a.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to determine rows affected: %w", err)
	}
	if affected > 0 {
		db.emit(ActionSettledEvent{Action: a, Status: status})
	}
	return nil
}

// CountPendingActions reports the queue depth, optionally for one bookmark
// (empty id counts the whole queue).
func (db *DB) CountPendingActions(bookmarkID string) (int, error) {
	var count int
	var err error
	if bookmarkID == "" {
		err = db.db.QueryRow("SELECT COUNT(*) FROM pending_actions").Scan(&count)
	} else {
		err = db.db.QueryRow("SELECT COUNT(*) FROM pending_actions WHERE bookmark_id = ?", bookmarkID).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count pending actions: %w", err)
	}
	return count, nil
}

func (db *DB) getAction(bookmarkID string, actionType ActionType) (PendingAction, error) {
	var a PendingAction
	err := db.db.QueryRow(`
		SELECT id, bookmark_id, action_type, payload, created_at
		FROM pending_actions
		WHERE bookmark_id = ? AND action_type = ?
	`, bookmarkID, string(actionType)).Scan(&a.ID, &a.BookmarkID, &a.Type, &a.Payload, &a.CreatedAt)
	if err != nil {
		return PendingAction{}, fmt.Errorf("failed to get action: %w", err)
	}
	return a, nil
}

func (db *DB) listActionsForBookmark(bookmarkID string) ([]PendingAction, error) {
	rows, err := db.db.Query(`
		SELECT id, bookmark_id, action_type, payload, created_at
		FROM pending_actions
		WHERE bookmark_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, bookmarkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions for bookmark %s: %w", bookmarkID, err)
	}
	defer rows.Close()
	return scanActions(rows)
}

// ListActionsForBookmark returns the queued actions for one bookmark in
// replay order. The merge engine consumes this when ingesting remote records.
func (db *DB) ListActionsForBookmark(bookmarkID string) ([]PendingAction, error) {
	return db.listActionsForBookmark(bookmarkID)
}

func scanActions(rows *sql.Rows) ([]PendingAction, error) {
	var out []PendingAction
	for rows.Next() {
		var a PendingAction
		if err := rows.Scan(&a.ID, &a.BookmarkID, &a.Type, &a.Payload, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending action: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
