package main

import (
	"context"
	"flag"
	"log"
	"os"

	"teamnotes/internal/config"
	"teamnotes/internal/repository/postgres"
	"teamnotes/internal/seed"
	notesSvc "teamnotes/internal/service/notes"
	"teamnotes/internal/settings"

	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only apply migrations, don't seed data")
	withNotes := flag.Bool("notes", true, "Post a demo conversation into the enabled project")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	logger := config.NewLogger(cfg.Environment, os.Stdout)
	logger.Info("seeding database", "environment", cfg.Environment, "table_prefix", cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		if err := postgres.DropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		logger.Info("tables dropped")
	}

	if err := postgres.ApplyMigrations(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	logger.Info("schema ready")

	if *schemaOnly {
		return
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	projects := postgres.NewProjectRepository(repoConfig)
	actors := postgres.NewActorRepository(repoConfig)

	seeder := seed.NewSeeder(projects, actors, logger)
	if err := seeder.SeedDirectory(ctx); err != nil {
		log.Fatalf("Failed to seed directory: %v", err)
	}

	if *withNotes {
		defaults, err := settings.Defaults()
		if err != nil {
			log.Fatalf("Failed to load default settings: %v", err)
		}
		// No hub: nobody is subscribed while seeding
		svc := notesSvc.NewNotesService(notesSvc.Config{
			Notes:    postgres.NewNoteRepository(repoConfig),
			Projects: projects,
			Actors:   actors,
			Settings: settings.NewStatic(defaults),
			Logger:   logger,
		})
		if err := seeder.SeedConversation(ctx, svc); err != nil {
			log.Fatalf("Failed to seed notes: %v", err)
		}
	}

	logger.Info("seeding complete")
}
