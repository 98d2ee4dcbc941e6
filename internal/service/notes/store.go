package notes

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"teamnotes/internal/config"
	"teamnotes/internal/domain"
	models "teamnotes/internal/domain/models/notes"
	"teamnotes/internal/domain/repositories"
)

// NoteStore owns note state. It assigns identity and timestamps and enforces
// the structural invariants before anything reaches the repository.
type NoteStore struct {
	repo repositories.NoteRepository
	now  func() time.Time

	mu   sync.Mutex
	last map[string]time.Time // latest createdAt handed out per project
}

// NewNoteStore creates a store over repo. now defaults to time.Now.
func NewNoteStore(repo repositories.NoteRepository, now func() time.Time) *NoteStore {
	if now == nil {
		now = time.Now
	}
	return &NoteStore{
		repo: repo,
		now:  now,
		last: make(map[string]time.Time),
	}
}

// Create validates and stores a new note, returning it with ID and CreatedAt set.
// Content is stored trimmed.
func (s *NoteStore) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	created := note.Clone()
	created.Content = strings.TrimSpace(created.Content)

	if err := validateShape(created); err != nil {
		return nil, err
	}

	created.ID = uuid.NewString()
	created.CreatedAt = s.nextCreatedAt(created.ProjectID)
	if created.Attachments == nil {
		created.Attachments = []models.Attachment{}
	}

	if err := s.repo.Insert(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func validateShape(note *models.Note) error {
	switch {
	case note.ProjectID == "":
		return domain.NewValidationError("projectId", "is required")
	case note.Content == "" && len(note.Attachments) == 0:
		return domain.NewValidationError("content", "cannot be empty")
	case note.ParentID != nil && *note.ParentID == "":
		return domain.NewValidationError("parentId", "cannot be empty")
	case note.ParentID != nil && len(note.Attachments) > 0:
		return domain.NewValidationError("attachments", "replies cannot carry attachments")
	case len(note.Attachments) > config.MaxAttachmentsPerNote:
		return domain.NewValidationError("attachments", "too many attachments")
	}
	return nil
}

// nextCreatedAt returns a UTC timestamp at microsecond precision (what
// Postgres stores) strictly after the previous one for the project.
// Monotonic within this process only.
func (s *NoteStore) nextCreatedAt(projectID string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC().Truncate(time.Microsecond)
	if last, ok := s.last[projectID]; ok && !ts.After(last) {
		ts = last.Add(time.Microsecond)
	}
	if len(s.last) >= maxTrackedProjects {
		s.prune(ts)
	}
	s.last[projectID] = ts
	return ts
}

// maxTrackedProjects bounds the createdAt map before a prune sweep runs
const maxTrackedProjects = 1024

// prune drops projects whose last createdAt is already behind now. The
// next note for such a project gets now or later, which is still after it.
func (s *NoteStore) prune(now time.Time) {
	for projectID, last := range s.last {
		if last.Before(now) {
			delete(s.last, projectID)
		}
	}
}

// trackedProjects reports how many projects hold a createdAt floor
func (s *NoteStore) trackedProjects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.last)
}

// List returns the project's notes in creation order
func (s *NoteStore) List(ctx context.Context, projectID string) ([]models.Note, error) {
	return s.repo.ListByProject(ctx, projectID)
}

// Get returns a note or a NotFoundError
func (s *NoteStore) Get(ctx context.Context, id string) (*models.Note, error) {
	return s.repo.GetByID(ctx, id)
}

// Hide marks a note hidden
func (s *NoteStore) Hide(ctx context.Context, id string) (*models.Note, error) {
	return s.repo.SetHidden(ctx, id, true)
}

// Unhide clears a note's hidden flag
func (s *NoteStore) Unhide(ctx context.Context, id string) (*models.Note, error) {
	return s.repo.SetHidden(ctx, id, false)
}

// ToggleHidden flips a note's hidden flag
func (s *NoteStore) ToggleHidden(ctx context.Context, id string) (*models.Note, error) {
	return s.repo.ToggleHidden(ctx, id)
}

// Delete removes a note, cascading to replies of a root, and returns the removed IDs
func (s *NoteStore) Delete(ctx context.Context, id string) ([]string, error) {
	return s.repo.Delete(ctx, id)
}
