//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamnotes/internal/domain"
	"teamnotes/internal/domain/models/notes"
	"teamnotes/internal/domain/repositories"
)

// newIntegrationRepos migrates a uniquely prefixed schema and drops it when
// the test ends. Run with: go test -tags integration ./internal/repository/postgres/
func newIntegrationRepos(t *testing.T) (repositories.NoteRepository, repositories.ProjectRepository) {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := CreateConnectionPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	tables := NewTableNames(fmt.Sprintf("it_%d_", time.Now().UnixNano()))
	require.NoError(t, ApplyMigrations(ctx, pool, tables))
	t.Cleanup(func() {
		if err := DropAllTables(context.Background(), pool, tables); err != nil {
			t.Logf("drop tables: %v", err)
		}
	})

	cfg := &RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return NewNoteRepository(cfg), NewProjectRepository(cfg)
}

func integrationNote(id, projectID string, parentID *string, at time.Time) *notes.Note {
	return &notes.Note{
		ID:                id,
		ProjectID:         projectID,
		AuthorID:          "author-1",
		AuthorRole:        notes.RoleClient,
		AuthorDisplayName: "Author",
		Content:           "content of " + id,
		ParentID:          parentID,
		Attachments:       []notes.Attachment{},
		CreatedAt:         at,
	}
}

func ids(list []notes.Note) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.ID)
	}
	return out
}

func TestNoteRepository_Postgres(t *testing.T) {
	repo, projects := newIntegrationRepos(t)
	ctx := context.Background()

	for _, id := range []string{"proj-a", "proj-b"} {
		require.NoError(t, projects.Upsert(ctx, &notes.ProjectNotesPolicy{ProjectID: id, NotesStatus: notes.NotesEnabled}))
	}

	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	root := integrationNote("root-1", "proj-a", nil, t0)
	require.NoError(t, repo.Insert(ctx, root))

	replyParent := root.ID
	reply := integrationNote("reply-1", "proj-a", &replyParent, t0.Add(time.Second))
	require.NoError(t, repo.Insert(ctx, reply))

	// same created_at as root-1: insertion sequence breaks the tie
	twin := integrationNote("root-2", "proj-a", nil, t0)
	twin.Attachments = []notes.Attachment{{Name: "spec.pdf", URL: "https://files.example/spec.pdf", Type: "application/pdf"}}
	require.NoError(t, repo.Insert(ctx, twin))

	t.Run("parent checks", func(t *testing.T) {
		nested := reply.ID
		err := repo.Insert(ctx, integrationNote("nested", "proj-a", &nested, t0.Add(2*time.Second)))
		assert.True(t, errors.Is(err, domain.ErrValidation), "reply to reply: %v", err)

		crossParent := root.ID
		err = repo.Insert(ctx, integrationNote("cross", "proj-b", &crossParent, t0.Add(2*time.Second)))
		assert.True(t, errors.Is(err, domain.ErrValidation), "cross project parent: %v", err)

		missing := "no-such-note"
		err = repo.Insert(ctx, integrationNote("orphan", "proj-a", &missing, t0.Add(2*time.Second)))
		assert.True(t, errors.Is(err, domain.ErrValidation), "missing parent: %v", err)

		err = repo.Insert(ctx, integrationNote("lost", "proj-missing", nil, t0))
		assert.True(t, errors.Is(err, domain.ErrNotFound), "unknown project: %v", err)

		err = repo.Insert(ctx, integrationNote(root.ID, "proj-a", nil, t0))
		var conflict *domain.ConflictError
		assert.True(t, errors.As(err, &conflict), "duplicate id: %v", err)
	})

	t.Run("list order", func(t *testing.T) {
		list, err := repo.ListByProject(ctx, "proj-a")
		require.NoError(t, err)
		assert.Equal(t, []string{"root-1", "root-2", "reply-1"}, ids(list))

		assert.True(t, list[0].CreatedAt.Equal(t0))
		require.NotNil(t, list[2].ParentID)
		assert.Equal(t, root.ID, *list[2].ParentID)
		assert.Equal(t, twin.Attachments, list[1].Attachments)
		assert.Empty(t, list[0].Attachments)

		other, err := repo.ListByProject(ctx, "proj-b")
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("toggle hidden", func(t *testing.T) {
		n, err := repo.ToggleHidden(ctx, twin.ID)
		require.NoError(t, err)
		assert.True(t, n.IsHidden)

		n, err = repo.ToggleHidden(ctx, twin.ID)
		require.NoError(t, err)
		assert.False(t, n.IsHidden)

		n, err = repo.SetHidden(ctx, twin.ID, true)
		require.NoError(t, err)
		assert.True(t, n.IsHidden)

		_, err = repo.ToggleHidden(ctx, "no-such-note")
		assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
	})

	t.Run("delete cascades", func(t *testing.T) {
		removed, err := repo.Delete(ctx, root.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{root.ID, reply.ID}, removed)

		_, err = repo.GetByID(ctx, reply.ID)
		assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

		_, err = repo.Delete(ctx, root.ID)
		assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

		list, err := repo.ListByProject(ctx, "proj-a")
		require.NoError(t, err)
		assert.Equal(t, []string{"root-2"}, ids(list))
	})
}
