package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"teamnotes/internal/domain/repositories"
)

// Pool sizing, also reported at startup
const (
	MaxConns = 25
	MinConns = 2
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Prefix     string
	Projects   string
	Actors     string
	Notes      string
	Migrations string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Prefix:     prefix,
		Projects:   fmt.Sprintf("%sprojects", prefix),
		Actors:     fmt.Sprintf("%sactors", prefix),
		Notes:      fmt.Sprintf("%snotes", prefix),
		Migrations: fmt.Sprintf("%sschema_migrations", prefix),
	}
}

// All returns every table, dependents first, for drop scripts
func (t *TableNames) All() []string {
	return []string{t.Notes, t.Actors, t.Projects, t.Migrations}
}

// CreateConnectionPool creates a pgx pool and verifies it with a ping.
//
// Port 6543 is treated as a PgBouncer transaction pooler, which cannot hold
// prepared statements, so the pool switches to QueryExecModeCacheDescribe unless
// the connection string already sets default_query_exec_mode.
// Table prefixes are interpolated before statements are sent, so each
// environment still gets its own statement cache entries.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = MaxConns
	config.MinConns = MinConns
	config.HealthCheckPeriod = 30 * time.Second

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool when there is none,
// so repository calls made inside ExecTx join the surrounding transaction.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.TxFrom(ctx); tx != nil {
		return tx
	}
	return pool
}
