package remote

import "time"

// Bookmark is the wire representation of a bookmark as served by the remote
// bookmark service.
type Bookmark struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	SiteName     string    `json:"site_name"`
	Type         string    `json:"type"`
	IsFavorite   bool      `json:"is_favorite"`
	IsArchived   bool      `json:"is_archived"`
	ReadProgress int       `json:"read_progress"`
	Labels       []string  `json:"labels"`
	State        string    `json:"state"`
	HasArticle   bool      `json:"has_article"`
	Created      time.Time `json:"created"`
}

// Page is one offset-paged slice of the remote bookmark list plus the
// pagination metadata carried in the response headers. Full sync cannot
// reconcile without all three header values, so the client refuses to return
// a Page missing any of them.
type Page struct {
	Bookmarks   []Bookmark
	TotalCount  int
	TotalPages  int
	CurrentPage int
}

// Patch is a partial bookmark edit. Nil fields are omitted from the request
// body and left untouched by the service.
type Patch struct {
	IsFavorite   *bool     `json:"is_favorite,omitempty"`
	IsArchived   *bool     `json:"is_archived,omitempty"`
	ReadProgress *int      `json:"read_progress,omitempty"`
	Labels       *[]string `json:"labels,omitempty"`
	Title        *string   `json:"title,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.IsFavorite == nil && p.IsArchived == nil && p.ReadProgress == nil &&
		p.Labels == nil && p.Title == nil
}
