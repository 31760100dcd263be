package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
)

// ErrInvalidURL is returned when a bookmark URL fails validation.
var ErrInvalidURL = errors.New("invalid URL")

// ErrBookmarkNotFound is returned when a bookmark id has no local row.
var ErrBookmarkNotFound = errors.New("bookmark not found")

// ValidateBookmarkURL validates that a URL is acceptable for bookmarking.
// It requires the URL to have http or https scheme and a non-empty host.
func ValidateBookmarkURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("%w: empty URL", ErrInvalidURL)
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	return nil
}

const bookmarkColumns = `id, url, title, site_name, type, is_favorite, is_archived,
	read_progress, labels, state, is_local_deleted, COALESCE(article_content, ''), created_at`

// scanBookmark reads one bookmark row from a *sql.Row or *sql.Rows.
func scanBookmark(scan func(dest ...any) error) (Bookmark, error) {
	var b Bookmark
	var labels string
	err := scan(&b.ID, &b.URL, &b.Title, &b.SiteName, &b.Type, &b.IsFavorite,
		&b.IsArchived, &b.ReadProgress, &labels, &b.State, &b.IsLocalDeleted,
		&b.ArticleContent, &b.CreatedAt)
	if err != nil {
		return Bookmark{}, err
	}
	b.Labels, err = unmarshalLabels(labels)
	if err != nil {
		return Bookmark{}, err
	}
	return b, nil
}

// ------------------------------
// Bookmark methods
// ------------------------------

func (db *DB) GetBookmark(id string) (Bookmark, error) {
	row := db.db.QueryRow("SELECT "+bookmarkColumns+" FROM bookmarks WHERE id = ?", id)
	b, err := scanBookmark(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Bookmark{}, fmt.Errorf("%w: %s", ErrBookmarkNotFound, id)
		}
		return Bookmark{}, fmt.Errorf("failed to get bookmark: %w", err)
	}
	return b, nil
}

const upsertBookmarkSQL = `
	INSERT INTO bookmarks (id, url, title, site_name, type, is_favorite, is_archived,
		read_progress, labels, state, is_local_deleted, article_content, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?)
	ON CONFLICT (id) DO UPDATE SET
		url = excluded.url,
		title = excluded.title,
		site_name = excluded.site_name,
		type = excluded.type,
		is_favorite = excluded.is_favorite,
		is_archived = excluded.is_archived,
		read_progress = excluded.read_progress,
		labels = excluded.labels,
		state = excluded.state,
		is_local_deleted = excluded.is_local_deleted,
		article_content = COALESCE(NULLIF(excluded.article_content, ''), bookmarks.article_content),
		created_at = excluded.created_at
`

func upsertBookmarkArgs(b Bookmark) ([]any, error) {
	labels, err := marshalLabels(b.Labels)
	if err != nil {
		return nil, err
	}
	return []any{
		b.ID, b.URL, b.Title, b.SiteName, string(b.Type), b.IsFavorite,
		b.IsArchived, ClampProgress(b.ReadProgress), labels, string(b.State),
		b.IsLocalDeleted, b.ArticleContent, b.CreatedAt,
	}, nil
}

// UpsertBookmark inserts or overwrites a single bookmark row by id.
// Emits a BookmarkUpsertedEvent after a successful write.
func (db *DB) UpsertBookmark(b Bookmark) error {
	args, err := upsertBookmarkArgs(b)
	if err != nil {
		return err
	}
	if _, err := db.db.Exec(upsertBookmarkSQL, args...); err != nil {
		return fmt.Errorf("failed to upsert bookmark %s: %w", b.ID, err)
	}
	db.emit(BookmarkUpsertedEvent{Bookmark: b})
	return nil
}

// UpsertBookmarks writes a batch of bookmarks in a single transaction, so a
// sync page lands all-or-nothing. Events are emitted only after the commit.
func (db *DB) UpsertBookmarks(bookmarks []Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}

	tx, err := db.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(upsertBookmarkSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bookmarks {
		args, err := upsertBookmarkArgs(b)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert bookmark %s: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, b := range bookmarks {
		db.emit(BookmarkUpsertedEvent{Bookmark: b})
	}
	return nil
}

func (db *DB) ListBookmarks(limit int) ([]Bookmark, error) {
	query := `
		SELECT ` + bookmarkColumns + `
		FROM bookmarks
		ORDER BY created_at DESC
	`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = db.db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = db.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var out []Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SyncState is the per-bookmark view reconciliation works from: the local id
// and whether a delete action is still queued for it.
type SyncState struct {
	ID               string
	HasPendingDelete bool
}

// ListSyncStates returns every local bookmark id with its pending-delete flag.
func (db *DB) ListSyncStates() ([]SyncState, error) {
	rows, err := db.db.Query(`
		SELECT b.id,
		       EXISTS (SELECT 1 FROM pending_actions a
		               WHERE a.bookmark_id = b.id AND a.action_type = ?)
		FROM bookmarks b
	`, string(ActionDelete))
	if err != nil {
		return nil, fmt.Errorf("failed to list sync states: %w", err)
	}
	defer rows.Close()

	var out []SyncState
	for rows.Next() {
		var s SyncState
		if err := rows.Scan(&s.ID, &s.HasPendingDelete); err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SaveArticleContent stores downloaded article HTML on a bookmark row.
func (db *DB) SaveArticleContent(id string, content string) error {
	res, err := db.db.Exec("UPDATE bookmarks SET article_content = ? WHERE id = ?", content, id)
	if err != nil {
		return fmt.Errorf("failed to save article content: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to determine rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrBookmarkNotFound, id)
	}

	b, err := db.GetBookmark(id)
	if err == nil {
		db.emit(BookmarkUpsertedEvent{Bookmark: b})
	}
	return nil
}

// HardDeleteBookmark removes a bookmark row and purges every pending action
// for it in one transaction. This runs when reconciliation finds the id gone
// from the remote set, or after a confirmed not-found response.
//
// Emits ActionSettledEvents for the purged actions and a BookmarkDeletedEvent.
func (db *DB) HardDeleteBookmark(id string) error {
	purged, err := db.listActionsForBookmark(id)
	if err != nil {
		return err
	}

	tx, err := db.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM pending_actions WHERE bookmark_id = ?", id); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to purge pending actions for %s: %w", id, err)
	}
	if _, err := tx.Exec("DELETE FROM bookmarks WHERE id = ?", id); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete bookmark %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, a := range purged {
		db.emit(ActionSettledEvent{Action: a, Status: SettledPurged})
	}
	db.emit(BookmarkDeletedEvent{BookmarkID: id})
	return nil
}
