package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamnotes/internal/domain"
	"teamnotes/internal/domain/models/notes"
)

func ptr(s string) *string { return &s }

func newNote(id, project string, parent *string, at time.Time) *notes.Note {
	return &notes.Note{
		ID:        id,
		ProjectID: project,
		AuthorID:  "u1",
		Content:   "content " + id,
		ParentID:  parent,
		CreatedAt: at,
	}
}

func TestNoteRepository_InsertParentRules(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository()
	now := time.Now().UTC()

	require.NoError(t, repo.Insert(ctx, newNote("root", "p1", nil, now)))
	require.NoError(t, repo.Insert(ctx, newNote("reply", "p1", ptr("root"), now)))
	require.NoError(t, repo.Insert(ctx, newNote("other-root", "p2", nil, now)))

	tests := []struct {
		name   string
		parent string
	}{
		{"missing parent", "nope"},
		{"reply to reply", "reply"},
		{"parent in other project", "other-root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Insert(ctx, newNote("bad-"+tt.parent, "p1", ptr(tt.parent), now))
			assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)

			_, getErr := repo.GetByID(ctx, "bad-"+tt.parent)
			assert.True(t, errors.Is(getErr, domain.ErrNotFound), "rejected note must not be stored")
		})
	}
}

func TestNoteRepository_DuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository()
	require.NoError(t, repo.Insert(ctx, newNote("n1", "p1", nil, time.Now())))

	err := repo.Insert(ctx, newNote("n1", "p1", nil, time.Now()))
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestNoteRepository_ListOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, newNote("b", "p1", nil, base.Add(time.Second))))
	require.NoError(t, repo.Insert(ctx, newNote("a", "p1", nil, base)))
	// same timestamp as b: insertion order breaks the tie
	require.NoError(t, repo.Insert(ctx, newNote("c", "p1", nil, base.Add(time.Second))))
	require.NoError(t, repo.Insert(ctx, newNote("x", "p2", nil, base)))

	list, err := repo.ListByProject(ctx, "p1")
	require.NoError(t, err)

	ids := make([]string, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	empty, err := repo.ListByProject(ctx, "none")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestNoteRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository()
	original := newNote("n1", "p1", nil, time.Now())
	original.Attachments = []notes.Attachment{{Name: "a", URL: "https://x.test/a", Type: "text/plain"}}
	require.NoError(t, repo.Insert(ctx, original))

	original.Content = "mutated"
	got, err := repo.GetByID(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "content n1", got.Content)

	got.Attachments[0].Name = "mutated"
	again, err := repo.GetByID(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Attachments[0].Name)
}

func TestNoteRepository_ToggleAndSetHidden(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository()
	require.NoError(t, repo.Insert(ctx, newNote("n1", "p1", nil, time.Now())))

	n, err := repo.ToggleHidden(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, n.IsHidden)

	n, err = repo.ToggleHidden(ctx, "n1")
	require.NoError(t, err)
	assert.False(t, n.IsHidden)

	n, err = repo.SetHidden(ctx, "n1", true)
	require.NoError(t, err)
	assert.True(t, n.IsHidden)

	_, err = repo.ToggleHidden(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = repo.SetHidden(ctx, "missing", false)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestNoteRepository_DeleteCascade(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository()
	now := time.Now()

	require.NoError(t, repo.Insert(ctx, newNote("root", "p1", nil, now)))
	require.NoError(t, repo.Insert(ctx, newNote("r1", "p1", ptr("root"), now)))
	require.NoError(t, repo.Insert(ctx, newNote("r2", "p1", ptr("root"), now)))
	require.NoError(t, repo.Insert(ctx, newNote("other", "p1", nil, now)))
	require.NoError(t, repo.Insert(ctx, newNote("o1", "p1", ptr("other"), now)))

	removed, err := repo.Delete(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, []string{"o1"}, removed)

	removed, err = repo.Delete(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "r1", "r2"}, removed)

	list, err := repo.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "other", list[0].ID)

	_, err = repo.Delete(ctx, "root")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProjectAndActorRepositories(t *testing.T) {
	ctx := context.Background()
	projects := NewProjectRepository(notes.ProjectNotesPolicy{ProjectID: "p1", NotesStatus: notes.NotesEnabled})
	actors := NewActorRepository(notes.Actor{ID: "u1", Role: notes.RoleClient})

	p, err := projects.GetNotesPolicy(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, notes.NotesEnabled, p.NotesStatus)

	require.NoError(t, projects.Upsert(ctx, &notes.ProjectNotesPolicy{ProjectID: "p1", NotesStatus: notes.NotesReadOnly}))
	p, err = projects.GetNotesPolicy(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, notes.NotesReadOnly, p.NotesStatus)

	_, err = projects.GetNotesPolicy(ctx, "p2")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	a, err := actors.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, notes.RoleClient, a.Role)

	_, err = actors.GetByID(ctx, "u2")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
