package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

const prefixPlaceholder = "{{prefix}}"

// ApplyMigrations runs every embedded *.up.sql file not yet recorded in the
// migrations table, in name order, each in its own transaction.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	if err := ensureMigrationsTable(ctx, pool, tables); err != nil {
		return err
	}

	files, err := migrationNames()
	if err != nil {
		return err
	}

	for _, version := range files {
		var applied bool
		err := pool.QueryRow(ctx,
			fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE version = $1)`, tables.Migrations),
			version,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if applied {
			continue
		}

		contents, err := fs.ReadFile(migrationFiles, "migrations/"+version)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", version, err)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", version, err)
		}

		if _, err := tx.Exec(ctx, renderMigration(string(contents), tables.Prefix)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("execute migration %s: %w", version, err)
		}

		if _, err := tx.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (version) VALUES ($1)`, tables.Migrations),
			version,
		); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", version, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", version, err)
		}
	}

	return nil
}

func ensureMigrationsTable(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	_, err := pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, tables.Migrations))
	if err != nil {
		return fmt.Errorf("ensure %s: %w", tables.Migrations, err)
	}
	return nil
}

// migrationNames lists embedded migrations in apply order
func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func renderMigration(sql, prefix string) string {
	return strings.ReplaceAll(sql, prefixPlaceholder, prefix)
}

// DropAllTables drops every table owned by the prefix, dependents first.
// Used by the seed tool and scripts; never called by the server.
func DropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range tables.All() {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}
