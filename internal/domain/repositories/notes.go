package repositories

import (
	"context"

	"teamnotes/internal/domain/models/notes"
)

// NoteRepository defines data access operations for notes.
// Implementations enforce the thread-shape invariants atomically with the write.
type NoteRepository interface {
	// Insert stores a fully populated note (ID and CreatedAt already assigned).
	// For replies, the parent is resolved in the same atomic step; a missing
	// parent, a parent that is itself a reply, or a parent in another project
	// yields a ValidationError and nothing is written.
	Insert(ctx context.Context, note *notes.Note) error

	// GetByID retrieves a note by ID
	GetByID(ctx context.Context, id string) (*notes.Note, error)

	// ListByProject returns all notes of a project in creation order
	ListByProject(ctx context.Context, projectID string) ([]notes.Note, error)

	// SetHidden sets the hidden flag and returns the updated note
	SetHidden(ctx context.Context, id string, hidden bool) (*notes.Note, error)

	// ToggleHidden flips the hidden flag atomically and returns the updated note
	ToggleHidden(ctx context.Context, id string) (*notes.Note, error)

	// Delete hard-deletes a note and, for a root note, all of its replies.
	// Returns the removed IDs with the requested note first.
	Delete(ctx context.Context, id string) ([]string, error)
}

// ProjectRepository reads project notes settings owned by the project service
type ProjectRepository interface {
	// GetNotesPolicy returns the project's notes status
	GetNotesPolicy(ctx context.Context, projectID string) (*notes.ProjectNotesPolicy, error)

	// Upsert creates or replaces a project's notes status (seeding and tests)
	Upsert(ctx context.Context, policy *notes.ProjectNotesPolicy) error
}

// ActorRepository resolves the current identity and role of an actor
type ActorRepository interface {
	// GetByID returns the actor's current role and display name
	GetByID(ctx context.Context, id string) (*notes.Actor, error)

	// Upsert creates or replaces an actor (seeding and tests)
	Upsert(ctx context.Context, actor *notes.Actor) error
}

// SystemSettingsProvider returns the current global notes switches
type SystemSettingsProvider interface {
	GetNotesSettings(ctx context.Context) (notes.SystemNotesSettings, error)
}
