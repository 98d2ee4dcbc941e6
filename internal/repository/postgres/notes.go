package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"teamnotes/internal/domain"
	"teamnotes/internal/domain/models/notes"
	"teamnotes/internal/domain/repositories"
)

const noteColumns = `id, project_id, author_id, author_role, author_display_name,
	content, parent_id, attachments, is_hidden, created_at`

// PostgresNoteRepository implements the NoteRepository interface
type PostgresNoteRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	tx     repositories.TransactionManager
	logger *slog.Logger
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(config *RepositoryConfig) repositories.NoteRepository {
	return &PostgresNoteRepository{
		pool:   config.Pool,
		tables: config.Tables,
		tx:     NewTransactionManager(config.Pool, config.Logger),
		logger: config.Logger,
	}
}

// Insert stores a note. For replies the parent row is share-locked in the same
// transaction so it cannot be deleted between the check and the insert.
func (r *PostgresNoteRepository) Insert(ctx context.Context, note *notes.Note) error {
	attachments := note.Attachments
	if attachments == nil {
		attachments = []notes.Attachment{}
	}
	attachmentsJSON, err := json.Marshal(attachments)
	if err != nil {
		return fmt.Errorf("encode attachments: %w", err)
	}

	return r.tx.ExecTx(ctx, func(ctx context.Context) error {
		executor := GetExecutor(ctx, r.pool)

		if note.ParentID != nil {
			if err := r.checkParent(ctx, executor, note); err != nil {
				return err
			}
		}

		query := fmt.Sprintf(`
			INSERT INTO %s (id, project_id, author_id, author_role, author_display_name,
				content, parent_id, attachments, is_hidden, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, r.tables.Notes)

		_, err := executor.Exec(ctx, query,
			note.ID,
			note.ProjectID,
			note.AuthorID,
			string(note.AuthorRole),
			note.AuthorDisplayName,
			note.Content,
			note.ParentID,
			attachmentsJSON,
			note.IsHidden,
			note.CreatedAt,
		)
		if err != nil {
			if IsPgForeignKeyError(err) {
				if note.ParentID != nil {
					return domain.NewValidationError("parentId", "parent note does not exist")
				}
				return fmt.Errorf("project %s: %w", note.ProjectID, domain.ErrNotFound)
			}
			if IsPgCheckViolation(err) {
				return domain.NewValidationError("note", "note violates storage constraints")
			}
			if IsPgDuplicateError(err) {
				return &domain.ConflictError{
					Message:      fmt.Sprintf("note %s already exists", note.ID),
					ResourceType: "note",
					ResourceID:   note.ID,
				}
			}
			return fmt.Errorf("insert note: %w", err)
		}
		return nil
	})
}

func (r *PostgresNoteRepository) checkParent(ctx context.Context, executor repositories.DBTX, note *notes.Note) error {
	query := fmt.Sprintf(`
		SELECT project_id, parent_id
		FROM %s
		WHERE id = $1
		FOR SHARE
	`, r.tables.Notes)

	var projectID string
	var grandparent *string
	err := executor.QueryRow(ctx, query, *note.ParentID).Scan(&projectID, &grandparent)
	if err != nil {
		if IsPgNoRowsError(err) {
			return domain.NewValidationError("parentId", "parent note does not exist")
		}
		return fmt.Errorf("resolve parent: %w", err)
	}
	if projectID != note.ProjectID {
		return domain.NewValidationError("parentId", "parent note belongs to another project")
	}
	if grandparent != nil {
		return domain.NewValidationError("parentId", "replies can only be added to root notes")
	}
	return nil
}

// GetByID retrieves a note by ID
func (r *PostgresNoteRepository) GetByID(ctx context.Context, id string) (*notes.Note, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, noteColumns, r.tables.Notes)

	executor := GetExecutor(ctx, r.pool)
	note, err := scanNote(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, domain.NewNotFoundError("note", id)
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

// ListByProject returns all notes of a project ordered by creation
func (r *PostgresNoteRepository) ListByProject(ctx context.Context, projectID string) ([]notes.Note, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE project_id = $1
		ORDER BY created_at ASC, seq ASC
	`, noteColumns, r.tables.Notes)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	list := []notes.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		list = append(list, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	return list, nil
}

// SetHidden sets the hidden flag
func (r *PostgresNoteRepository) SetHidden(ctx context.Context, id string, hidden bool) (*notes.Note, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET is_hidden = $2
		WHERE id = $1
		RETURNING %s
	`, r.tables.Notes, noteColumns)

	return r.updateOne(ctx, id, query, id, hidden)
}

// ToggleHidden flips the hidden flag in a single statement
func (r *PostgresNoteRepository) ToggleHidden(ctx context.Context, id string) (*notes.Note, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET is_hidden = NOT is_hidden
		WHERE id = $1
		RETURNING %s
	`, r.tables.Notes, noteColumns)

	return r.updateOne(ctx, id, query, id)
}

func (r *PostgresNoteRepository) updateOne(ctx context.Context, id, query string, args ...any) (*notes.Note, error) {
	executor := GetExecutor(ctx, r.pool)
	note, err := scanNote(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, domain.NewNotFoundError("note", id)
		}
		return nil, fmt.Errorf("update note: %w", err)
	}
	return note, nil
}

// Delete removes a note and its replies. The FK cascade would remove replies
// on its own; deleting them explicitly lets RETURNING report every ID.
func (r *PostgresNoteRepository) Delete(ctx context.Context, id string) ([]string, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 OR parent_id = $1
		RETURNING id
	`, r.tables.Notes)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("delete note: %w", err)
	}
	removed, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("delete note: %w", err)
	}

	if len(removed) == 0 {
		return nil, domain.NewNotFoundError("note", id)
	}
	return requestedFirst(id, removed), nil
}

// requestedFirst moves id to the front of ids
func requestedFirst(id string, ids []string) []string {
	out := make([]string, 0, len(ids))
	out = append(out, id)
	for _, other := range ids {
		if other != id {
			out = append(out, other)
		}
	}
	return out
}

func scanNote(row pgx.Row) (*notes.Note, error) {
	var note notes.Note
	var role string
	var attachmentsJSON []byte

	err := row.Scan(
		&note.ID,
		&note.ProjectID,
		&note.AuthorID,
		&role,
		&note.AuthorDisplayName,
		&note.Content,
		&note.ParentID,
		&attachmentsJSON,
		&note.IsHidden,
		&note.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	note.AuthorRole = notes.ParseRole(role)
	note.CreatedAt = note.CreatedAt.UTC()
	note.Attachments = []notes.Attachment{}
	if len(attachmentsJSON) > 0 {
		if err := json.Unmarshal(attachmentsJSON, &note.Attachments); err != nil {
			return nil, fmt.Errorf("decode attachments: %w", err)
		}
	}
	return &note, nil
}
