package core

import "github.com/example/marksync/internal/core/db"

// Merge combines a freshly fetched remote bookmark with the local record and
// its outstanding pending actions, producing the row to persist.
//
// The remote record is authoritative for every field without a pending
// action. Each pending action pins its field(s) to the local value, so an
// un-synced local edit is never clobbered by a slightly stale remote read.
// A Delete action only marks the record locally deleted; the remaining remote
// fields pass through untouched.
//
// When local is nil (first sighting of this id) there is nothing to preserve
// and field-pinning actions are ignored, but a Delete still marks the record.
//
// Merge performs no I/O and is idempotent: the same inputs always produce the
// same output.
func Merge(remote db.Bookmark, local *db.Bookmark, pending []db.PendingAction) db.Bookmark {
	out := remote
	out.ReadProgress = db.ClampProgress(out.ReadProgress)
	if out.Labels != nil {
		out.Labels = append([]string(nil), out.Labels...)
	}

	for _, action := range pending {
		if action.BookmarkID != remote.ID {
			continue
		}
		if action.Type == db.ActionDelete {
			out.IsLocalDeleted = true
			continue
		}
		if local == nil {
			continue
		}
		switch action.Type {
		case db.ActionToggleFavorite:
			out.IsFavorite = local.IsFavorite
		case db.ActionToggleArchive:
			out.IsArchived = local.IsArchived
		case db.ActionToggleRead, db.ActionUpdateProgress:
			out.ReadProgress = db.ClampProgress(local.ReadProgress)
		case db.ActionUpdateLabels:
			out.Labels = append([]string(nil), local.Labels...)
		case db.ActionUpdateTitle:
			out.Title = local.Title
		}
	}

	return out
}
