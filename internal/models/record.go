// Package models defines the record types held in the local store and
// exchanged with the remote snapshot.
package models

// Table names used by tombstones and the snapshot wire format.
const (
	TableNotes       = "notes"
	TableCategories  = "categories"
	TableLinks       = "note_category_links"
	TableAttachments = "attachments"
)

// Note is a single note record. Timestamps are epoch milliseconds.
type Note struct {
	ID         string `json:"id"`
	OwnerID    string `json:"ownerId"`
	Title      string `json:"title,omitempty"`
	Content    string `json:"content"`
	CreatedAt  int64  `json:"createdAt"`
	ModifiedAt int64  `json:"modifiedAt"`
	Deleted    bool   `json:"deleted"`
}

// Category groups notes. Color and Icon are presentation hints carried
// through sync untouched.
type Category struct {
	ID         string `json:"id"`
	OwnerID    string `json:"ownerId"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	Icon       string `json:"icon,omitempty"`
	ModifiedAt int64  `json:"modifiedAt"`
	Deleted    bool   `json:"deleted"`
}

// NoteCategoryLink ties a note to a category.
type NoteCategoryLink struct {
	ID         string `json:"id"`
	OwnerID    string `json:"ownerId"`
	NoteID     string `json:"noteId"`
	CategoryID string `json:"categoryId"`
	ModifiedAt int64  `json:"modifiedAt"`
	Deleted    bool   `json:"deleted"`
}
