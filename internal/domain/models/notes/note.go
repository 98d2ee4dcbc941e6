package notes

import (
	"time"
)

// Attachment is metadata for a file stored elsewhere; only root notes carry them.
type Attachment struct {
	Name string `json:"name" db:"name"`
	URL  string `json:"url" db:"url"`
	Type string `json:"type" db:"type"`
}

// Note is a single message in a project's Team Discussion feed.
// ParentID == nil marks a root note (thread head); otherwise the note is a reply
// and ParentID always points at a root note of the same project.
type Note struct {
	ID                string       `json:"id" db:"id"`
	ProjectID         string       `json:"projectId" db:"project_id"`
	AuthorID          string       `json:"authorId" db:"author_id"`
	AuthorRole        Role         `json:"authorRole" db:"author_role"`
	AuthorDisplayName string       `json:"authorDisplayName" db:"author_display_name"`
	Content           string       `json:"content" db:"content"`
	ParentID          *string      `json:"parentId" db:"parent_id"`
	Attachments       []Attachment `json:"attachments" db:"attachments"`
	IsHidden          bool         `json:"isHidden" db:"is_hidden"`
	CreatedAt         time.Time    `json:"createdAt" db:"created_at"`
}

// IsRoot reports whether the note heads a thread
func (n *Note) IsRoot() bool {
	return n.ParentID == nil
}

// Clone returns a deep copy so callers can't mutate stored state
func (n *Note) Clone() *Note {
	c := *n
	if n.ParentID != nil {
		parent := *n.ParentID
		c.ParentID = &parent
	}
	if n.Attachments != nil {
		c.Attachments = make([]Attachment, len(n.Attachments))
		copy(c.Attachments, n.Attachments)
	}
	return &c
}

// NoteView is the viewer-specific projection of a Note. Hidden content is
// substituted here, never in storage.
type NoteView struct {
	ID                string       `json:"id"`
	ProjectID         string       `json:"projectId"`
	AuthorID          string       `json:"authorId"`
	AuthorRole        Role         `json:"authorRole"`
	AuthorDisplayName string       `json:"authorDisplayName"`
	Content           string       `json:"content"`
	ParentID          *string      `json:"parentId"`
	Attachments       []Attachment `json:"attachments"`
	IsHidden          bool         `json:"isHidden"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// Thread is a root note plus its replies ordered by creation time. Derived, never stored.
type Thread struct {
	Root    NoteView   `json:"root"`
	Replies []NoteView `json:"replies"`
}
