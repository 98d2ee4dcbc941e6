package notes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamnotes/internal/domain"
	models "teamnotes/internal/domain/models/notes"
	"teamnotes/internal/repository/memory"
)

func TestNoteStore_CreateAssignsIdentity(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 123456789, time.FixedZone("X", 3600))
	store := NewNoteStore(memory.NewNoteRepository(), func() time.Time { return fixed })
	ctx := context.Background()

	a, err := store.Create(ctx, &models.Note{ProjectID: "p", Content: "a", ID: "client-supplied", IsHidden: false})
	require.NoError(t, err)
	b, err := store.Create(ctx, &models.Note{ProjectID: "p", Content: "b"})
	require.NoError(t, err)
	c, err := store.Create(ctx, &models.Note{ProjectID: "q", Content: "c"})
	require.NoError(t, err)

	assert.NotEqual(t, "client-supplied", a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, time.UTC, a.CreatedAt.Location())
	assert.Equal(t, fixed.UTC().Truncate(time.Microsecond), a.CreatedAt)
	assert.Equal(t, a.CreatedAt.Add(time.Microsecond), b.CreatedAt, "same clock reading is bumped")
	assert.Equal(t, a.CreatedAt, c.CreatedAt, "other projects are independent")
	assert.NotNil(t, a.Attachments)
}

func TestNoteStore_PrunesStaleCreatedAtFloors(t *testing.T) {
	clk := &clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewNoteStore(memory.NewNoteRepository(), clk.Now)
	ctx := context.Background()

	var hot *models.Note
	for i := 0; i < 3; i++ {
		n, err := store.Create(ctx, &models.Note{ProjectID: "hot", Content: "x"})
		require.NoError(t, err)
		hot = n
	}
	for i := 1; i < maxTrackedProjects; i++ {
		_, err := store.Create(ctx, &models.Note{ProjectID: fmt.Sprintf("p-%d", i), Content: "x"})
		require.NoError(t, err)
	}
	require.Equal(t, maxTrackedProjects, store.trackedProjects())

	clk.Advance(time.Microsecond)
	_, err := store.Create(ctx, &models.Note{ProjectID: "fresh", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, 2, store.trackedProjects(), "only floors still ahead of the clock survive")

	next, err := store.Create(ctx, &models.Note{ProjectID: "hot", Content: "x"})
	require.NoError(t, err)
	assert.True(t, next.CreatedAt.After(hot.CreatedAt))
}

func TestNoteStore_DoesNotMutateInput(t *testing.T) {
	store := NewNoteStore(memory.NewNoteRepository(), nil)
	in := &models.Note{ProjectID: "p", Content: "  padded  "}

	out, err := store.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "padded", out.Content)
	assert.Equal(t, "  padded  ", in.Content)
	assert.Empty(t, in.ID)
}

func TestNoteStore_ShapeRules(t *testing.T) {
	store := NewNoteStore(memory.NewNoteRepository(), nil)
	ctx := context.Background()
	root, err := store.Create(ctx, &models.Note{ProjectID: "p", Content: "root"})
	require.NoError(t, err)

	att := models.Attachment{Name: "a", URL: "https://x.test/a"}
	tests := []struct {
		name string
		note models.Note
	}{
		{"no project", models.Note{Content: "x"}},
		{"blank content", models.Note{ProjectID: "p", Content: " \n\t "}},
		{"reply with attachment", models.Note{ProjectID: "p", Content: "x", ParentID: &root.ID, Attachments: []models.Attachment{att}}},
		{"six attachments", models.Note{ProjectID: "p", Attachments: []models.Attachment{att, att, att, att, att, att}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(ctx, &tt.note)
			assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
		})
	}

	five := []models.Attachment{att, att, att, att, att}
	_, err = store.Create(ctx, &models.Note{ProjectID: "p", Attachments: five})
	assert.NoError(t, err, "five attachments without content is a valid root")
}

func TestNoteStore_HideUnhide(t *testing.T) {
	store := NewNoteStore(memory.NewNoteRepository(), nil)
	ctx := context.Background()
	n, err := store.Create(ctx, &models.Note{ProjectID: "p", Content: "x"})
	require.NoError(t, err)

	hidden, err := store.Hide(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, hidden.IsHidden)

	hidden, err = store.Hide(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, hidden.IsHidden, "hide is idempotent")

	shown, err := store.Unhide(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, shown.IsHidden)

	_, err = store.Hide(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = store.Unhide(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = store.Delete(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("same")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	k.mu.Lock()
	assert.Empty(t, k.locks, "released keys are forgotten")
	k.mu.Unlock()
}
