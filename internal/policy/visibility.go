// Package policy computes what an actor may do in a project's discussion feed
// and how a note is presented to a given viewer.
package policy

import (
	"time"

	"teamnotes/internal/config"
	"teamnotes/internal/domain/models/notes"
)

// HiddenPlaceholder replaces hidden content for non-admin viewers
const HiddenPlaceholder = "This message was hidden by a moderator."

// Capabilities is the fixed set of project-level permissions for an actor
type Capabilities struct {
	CanView       bool `json:"canView"`
	CanCreateRoot bool `json:"canCreateRoot"`
	CanReply      bool `json:"canReply"`
	CanToggleHide bool `json:"canToggleHide"`
}

// Evaluate computes an actor's capabilities. Admins keep read and write access
// even when the feature is disabled or read-only, so the channel stays moderatable.
func Evaluate(system notes.SystemNotesSettings, project notes.ProjectNotesPolicy, actor notes.Actor) Capabilities {
	admin := actor.Role.IsAdmin()

	canView := admin || (system.SystemEnabled && project.NotesStatus != notes.NotesDisabled)
	canCreateRoot := canView && (admin || project.NotesStatus == notes.NotesEnabled)
	canReply := canCreateRoot && system.RepliesEnabled

	return Capabilities{
		CanView:       canView,
		CanCreateRoot: canCreateRoot,
		CanReply:      canReply,
		CanToggleHide: admin,
	}
}

// CanDelete reports whether actor may delete note at time now.
// Authors lose the right at exactly createdAt + AuthorDeleteWindow.
func CanDelete(actor notes.Actor, note *notes.Note, now time.Time) bool {
	if actor.Role.IsAdmin() {
		return true
	}
	if note.AuthorID != actor.ID {
		return false
	}
	return now.Sub(note.CreatedAt) < config.AuthorDeleteWindow
}

// Present renders note for viewer. The stored note is never modified.
func Present(note *notes.Note, viewer notes.Role) notes.NoteView {
	view := notes.NoteView{
		ID:                note.ID,
		ProjectID:         note.ProjectID,
		AuthorID:          note.AuthorID,
		AuthorRole:        note.AuthorRole,
		AuthorDisplayName: note.AuthorDisplayName,
		Content:           note.Content,
		IsHidden:          note.IsHidden,
		CreatedAt:         note.CreatedAt,
		Attachments:       []notes.Attachment{},
	}
	if note.ParentID != nil {
		parent := *note.ParentID
		view.ParentID = &parent
	}
	if len(note.Attachments) > 0 {
		view.Attachments = append(view.Attachments, note.Attachments...)
	}

	if note.IsHidden && !viewer.IsAdmin() {
		view.Content = HiddenPlaceholder
		view.Attachments = []notes.Attachment{}
	}
	return view
}

// PresentAll renders a list of notes for viewer, preserving order
func PresentAll(list []notes.Note, viewer notes.Role) []notes.NoteView {
	views := make([]notes.NoteView, 0, len(list))
	for i := range list {
		views = append(views, Present(&list[i], viewer))
	}
	return views
}

// GroupThreads groups replies under their root note. Roots and replies keep
// the creation order of views; replies whose root is absent are dropped.
func GroupThreads(views []notes.NoteView) []notes.Thread {
	index := make(map[string]int)
	threads := make([]notes.Thread, 0)

	for _, v := range views {
		if v.ParentID == nil {
			index[v.ID] = len(threads)
			threads = append(threads, notes.Thread{Root: v, Replies: []notes.NoteView{}})
		}
	}
	for _, v := range views {
		if v.ParentID == nil {
			continue
		}
		if i, ok := index[*v.ParentID]; ok {
			threads[i].Replies = append(threads[i].Replies, v)
		}
	}
	return threads
}
