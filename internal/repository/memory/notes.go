// Package memory provides in-process repositories for tests and STORAGE=memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"teamnotes/internal/domain"
	"teamnotes/internal/domain/models/notes"
	"teamnotes/internal/domain/repositories"
)

type storedNote struct {
	note *notes.Note
	seq  int64
}

// NoteRepository keeps notes in memory behind a single lock
type NoteRepository struct {
	mu    sync.RWMutex
	notes map[string]*storedNote
	seq   int64
}

// NewNoteRepository creates an empty note repository
func NewNoteRepository() *NoteRepository {
	return &NoteRepository{notes: make(map[string]*storedNote)}
}

var _ repositories.NoteRepository = (*NoteRepository)(nil)

// Insert stores a copy of note. Parent resolution and the write happen under one lock.
func (r *NoteRepository) Insert(_ context.Context, note *notes.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.notes[note.ID]; exists {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("note %s already exists", note.ID),
			ResourceType: "note",
			ResourceID:   note.ID,
		}
	}

	if note.ParentID != nil {
		parent, ok := r.notes[*note.ParentID]
		switch {
		case !ok:
			return domain.NewValidationError("parentId", "parent note does not exist")
		case parent.note.ProjectID != note.ProjectID:
			return domain.NewValidationError("parentId", "parent note belongs to another project")
		case !parent.note.IsRoot():
			return domain.NewValidationError("parentId", "replies can only be added to root notes")
		}
	}

	r.seq++
	stored := note.Clone()
	if stored.Attachments == nil {
		stored.Attachments = []notes.Attachment{}
	}
	r.notes[note.ID] = &storedNote{note: stored, seq: r.seq}
	return nil
}

// GetByID returns a copy of the note
func (r *NoteRepository) GetByID(_ context.Context, id string) (*notes.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.notes[id]
	if !ok {
		return nil, domain.NewNotFoundError("note", id)
	}
	return stored.note.Clone(), nil
}

// ListByProject returns copies ordered by created_at, then insertion
func (r *NoteRepository) ListByProject(_ context.Context, projectID string) ([]notes.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*storedNote, 0)
	for _, stored := range r.notes {
		if stored.note.ProjectID == projectID {
			matched = append(matched, stored)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.note.CreatedAt.Equal(b.note.CreatedAt) {
			return a.note.CreatedAt.Before(b.note.CreatedAt)
		}
		return a.seq < b.seq
	})

	list := make([]notes.Note, 0, len(matched))
	for _, stored := range matched {
		list = append(list, *stored.note.Clone())
	}
	return list, nil
}

// SetHidden sets the hidden flag
func (r *NoteRepository) SetHidden(_ context.Context, id string, hidden bool) (*notes.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.notes[id]
	if !ok {
		return nil, domain.NewNotFoundError("note", id)
	}
	stored.note.IsHidden = hidden
	return stored.note.Clone(), nil
}

// ToggleHidden flips the hidden flag
func (r *NoteRepository) ToggleHidden(_ context.Context, id string) (*notes.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.notes[id]
	if !ok {
		return nil, domain.NewNotFoundError("note", id)
	}
	stored.note.IsHidden = !stored.note.IsHidden
	return stored.note.Clone(), nil
}

// Delete removes the note and, for a root, its replies
func (r *NoteRepository) Delete(_ context.Context, id string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.notes[id]
	if !ok {
		return nil, domain.NewNotFoundError("note", id)
	}

	removed := []string{id}
	if target.note.IsRoot() {
		replies := make([]*storedNote, 0)
		for _, stored := range r.notes {
			if stored.note.ParentID != nil && *stored.note.ParentID == id {
				replies = append(replies, stored)
			}
		}
		sort.Slice(replies, func(i, j int) bool { return replies[i].seq < replies[j].seq })
		for _, reply := range replies {
			removed = append(removed, reply.note.ID)
			delete(r.notes, reply.note.ID)
		}
	}
	delete(r.notes, id)
	return removed, nil
}
