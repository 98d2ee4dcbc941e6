package services

import (
	"context"

	"teamnotes/internal/domain/models/notes"
	"teamnotes/internal/policy"
)

// PostNoteRequest is a new root note (ParentID nil) or a reply
type PostNoteRequest struct {
	ProjectID   string             `json:"-"`
	ActorID     string             `json:"-"`
	Content     string             `json:"content"`
	ParentID    *string            `json:"parentId,omitempty"`
	Attachments []notes.Attachment `json:"attachments,omitempty"`
}

// PostNoteResult carries the created note rendered for its author.
// ModerationApplied is a successful outcome, not an error: the note exists but
// was hidden by the contact-info policy.
type PostNoteResult struct {
	Note              notes.NoteView `json:"note"`
	ModerationApplied bool           `json:"moderationApplied"`
}

// NotesService is the single entry point for Team Discussion operations
type NotesService interface {
	// PostNote gates, moderates, persists then publishes a note
	PostNote(ctx context.Context, req *PostNoteRequest) (*PostNoteResult, error)

	// ListNotes returns the project's notes in creation order, rendered for the actor
	ListNotes(ctx context.Context, projectID, actorID string) ([]notes.NoteView, error)

	// ListThreads returns the project's notes grouped into threads
	ListThreads(ctx context.Context, projectID, actorID string) ([]notes.Thread, error)

	// DeleteNote hard-deletes a note (and its replies if root); returns removed IDs
	DeleteNote(ctx context.Context, noteID, actorID string) ([]string, error)

	// ToggleHide flips a note's hidden flag; admins only
	ToggleHide(ctx context.Context, noteID, actorID string) (*notes.NoteView, error)

	// Capabilities reports what the actor may do in the project
	Capabilities(ctx context.Context, projectID, actorID string) (*policy.Capabilities, error)

	// CurrentActor looks up the actor's current role and display name
	CurrentActor(ctx context.Context, actorID string) (*notes.Actor, error)

	// Authorize resolves the actor and checks they may view the project.
	// Used by realtime transports before joining a room.
	Authorize(ctx context.Context, projectID, actorID string) (*notes.Actor, error)
}
