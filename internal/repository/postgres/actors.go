package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"teamnotes/internal/domain"
	"teamnotes/internal/domain/models/notes"
	"teamnotes/internal/domain/repositories"
)

// PostgresActorRepository resolves actors' current role
type PostgresActorRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewActorRepository creates a new actor repository
func NewActorRepository(config *RepositoryConfig) repositories.ActorRepository {
	return &PostgresActorRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// GetByID retrieves an actor by ID
func (r *PostgresActorRepository) GetByID(ctx context.Context, id string) (*notes.Actor, error) {
	query := fmt.Sprintf(`
		SELECT id, role, display_name
		FROM %s
		WHERE id = $1
	`, r.tables.Actors)

	var actor notes.Actor
	var role string
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(&actor.ID, &role, &actor.DisplayName)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, domain.NewNotFoundError("actor", id)
		}
		return nil, fmt.Errorf("get actor: %w", err)
	}

	actor.Role = notes.ParseRole(role)
	return &actor, nil
}

// Upsert creates or replaces an actor's role and display name
func (r *PostgresActorRepository) Upsert(ctx context.Context, actor *notes.Actor) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, role, display_name, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE
		SET role = EXCLUDED.role, display_name = EXCLUDED.display_name, updated_at = NOW()
	`, r.tables.Actors)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, actor.ID, string(actor.Role), actor.DisplayName); err != nil {
		return fmt.Errorf("upsert actor: %w", err)
	}
	return nil
}
