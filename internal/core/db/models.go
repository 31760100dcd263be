package db

import (
	"encoding/json"
	"fmt"
)

// BookmarkType classifies what the remote service extracted from the URL.
type BookmarkType string

const (
	TypeArticle BookmarkType = "article"
	TypePicture BookmarkType = "picture"
	TypeVideo   BookmarkType = "video"
)

// BookmarkState tracks remote-side content extraction.
// Loading is the only non-terminal state.
type BookmarkState string

const (
	StateLoading BookmarkState = "loading"
	StateLoaded  BookmarkState = "loaded"
	StateError   BookmarkState = "error"
)

type Bookmark struct {
	// ID is assigned by the remote service and is the stable identity.
	ID             string
	URL            string
	Title          string
	SiteName       string
	Type           BookmarkType
	IsFavorite     bool
	IsArchived     bool
	ReadProgress   int
	Labels         []string
	State          BookmarkState
	IsLocalDeleted bool
	ArticleContent string
	// CreatedAt is stored in the DB as RFC3339Nano text.
	CreatedAt string
}

// IsRead reports whether the bookmark has been read to the end.
func (b Bookmark) IsRead() bool { return b.ReadProgress >= 100 }

// ClampProgress bounds a read progress value to [0, 100].
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ActionType identifies a kind of queued local mutation. At most one pending
// action per (bookmark, type) exists at any time; a newer mutation of the same
// type coalesces into the existing row.
type ActionType string

const (
	ActionToggleFavorite ActionType = "toggle_favorite"
	ActionToggleArchive  ActionType = "toggle_archive"
	ActionToggleRead     ActionType = "toggle_read"
	ActionUpdateProgress ActionType = "update_progress"
	ActionUpdateLabels   ActionType = "update_labels"
	ActionUpdateTitle    ActionType = "update_title"
	ActionDelete         ActionType = "delete"
)

// PendingAction is a queued, not-yet-synced local mutation awaiting remote
// confirmation.
type PendingAction struct {
	ID         string
	BookmarkID string
	Type       ActionType
	// Payload is the type-specific JSON payload, empty object for deletes.
	Payload string
	// CreatedAt is stored as RFC3339Nano text; the queue is replayed in
	// ascending CreatedAt order.
	CreatedAt string
}

// ActionPayload is the union of per-type payload fields. Only the fields for
// the action's type are meaningful.
type ActionPayload struct {
	Flag      *bool    `json:"flag,omitempty"`
	Progress  *int     `json:"progress,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Title     *string  `json:"title,omitempty"`
}

// DecodePayload unmarshals the action's stored payload.
func (a PendingAction) DecodePayload() (ActionPayload, error) {
	var p ActionPayload
	if a.Payload == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(a.Payload), &p); err != nil {
		return p, fmt.Errorf("failed to decode payload for action %s: %w", a.ID, err)
	}
	return p, nil
}

// EncodePayload marshals a payload for storage on an action row.
func EncodePayload(p ActionPayload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode action payload: %w", err)
	}
	return string(data), nil
}

// marshalLabels encodes a label list as the JSON text stored in the labels
// column. A nil list round-trips as an empty list.
func marshalLabels(labels []string) (string, error) {
	if labels == nil {
		labels = []string{}
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("failed to encode labels: %w", err)
	}
	return string(data), nil
}

func unmarshalLabels(text string) ([]string, error) {
	if text == "" {
		return []string{}, nil
	}
	var labels []string
	if err := json.Unmarshal([]byte(text), &labels); err != nil {
		return nil, fmt.Errorf("failed to decode labels: %w", err)
	}
	if labels == nil {
		labels = []string{}
	}
	return labels, nil
}
