package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"teamnotes/internal/domain"
	"teamnotes/internal/domain/models/notes"
	"teamnotes/internal/domain/repositories"
)

// PostgresProjectRepository reads project notes status
type PostgresProjectRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(config *RepositoryConfig) repositories.ProjectRepository {
	return &PostgresProjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// GetNotesPolicy retrieves a project's notes status
func (r *PostgresProjectRepository) GetNotesPolicy(ctx context.Context, projectID string) (*notes.ProjectNotesPolicy, error) {
	query := fmt.Sprintf(`
		SELECT id, notes_status
		FROM %s
		WHERE id = $1
	`, r.tables.Projects)

	var policy notes.ProjectNotesPolicy
	var status string
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, projectID).Scan(&policy.ProjectID, &status)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, domain.NewNotFoundError("project", projectID)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	policy.NotesStatus = notes.ParseNotesStatus(status)
	return &policy, nil
}

// Upsert creates the project or updates its notes status
func (r *PostgresProjectRepository) Upsert(ctx context.Context, policy *notes.ProjectNotesPolicy) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, notes_status, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET notes_status = EXCLUDED.notes_status, updated_at = NOW()
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, policy.ProjectID, string(policy.NotesStatus)); err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}
