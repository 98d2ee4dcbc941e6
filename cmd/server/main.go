package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"teamnotes/internal/auth"
	"teamnotes/internal/config"
	"teamnotes/internal/domain/repositories"
	"teamnotes/internal/handler"
	"teamnotes/internal/middleware"
	"teamnotes/internal/realtime"
	"teamnotes/internal/repository/memory"
	"teamnotes/internal/repository/postgres"
	"teamnotes/internal/seed"
	notesSvc "teamnotes/internal/service/notes"
	"teamnotes/internal/settings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// repositorySet is the storage backend chosen at startup
type repositorySet struct {
	notes    repositories.NoteRepository
	projects repositories.ProjectRepository
	actors   repositories.ActorRepository
	close    func()
}

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging, optionally teeing into a rotated log file
	var out io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		out = io.MultiWriter(os.Stdout, logFile)
	}
	logger := config.NewLogger(cfg.Environment, out)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"storage", cfg.Storage,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier := newVerifier(cfg, logger)
	defer verifier.Close()

	repos := openRepositories(ctx, cfg, logger)
	defer repos.close()

	// System settings collaborator
	var settingsProvider repositories.SystemSettingsProvider
	if cfg.SystemSettingsFile != "" {
		fp, err := settings.NewFileProvider(cfg.SystemSettingsFile, logger)
		if err != nil {
			log.Fatalf("Failed to load system settings: %v", err)
		}
		settingsProvider = fp
	} else {
		defaults, err := settings.Defaults()
		if err != nil {
			log.Fatalf("Failed to load default system settings: %v", err)
		}
		settingsProvider = settings.NewStatic(defaults)
	}

	// Realtime hub, bridged across instances through Redis when configured
	hub := realtime.NewHub(logger)
	if cfg.RedisURL != "" {
		redisClient, err := realtime.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		broker := realtime.NewRedisBroker(redisClient, hub, logger)
		if err := broker.Start(ctx); err != nil {
			log.Fatalf("Failed to subscribe to Redis: %v", err)
		}
		defer broker.Close()
		hub.SetBroker(broker)
		logger.Info("realtime fan-out via redis enabled")
	}

	notesService := notesSvc.NewNotesService(notesSvc.Config{
		Notes:    repos.notes,
		Projects: repos.projects,
		Actors:   repos.actors,
		Settings: settingsProvider,
		Hub:      hub,
		Logger:   logger,
	})

	if cfg.Storage == config.StorageMemory {
		seeder := seed.NewSeeder(repos.projects, repos.actors, logger)
		if err := seeder.SeedDirectory(ctx); err != nil {
			log.Fatalf("Failed to seed in-memory directory: %v", err)
		}
	}

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")

	rtCfg := handler.DefaultRealtimeConfig()
	rtCfg.SendBuffer = cfg.WSSendBuffer
	rtCfg.KeepAliveInterval = cfg.KeepAliveInterval
	rtCfg.AllowedOrigins = corsOrigins

	notesHandler := handler.NewNotesHandler(notesService, logger)
	realtimeHandler := handler.NewRealtimeHandler(notesService, hub, rtCfg, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, notesHandler, realtimeHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Build middleware chain
	// Order: CORS → Recovery → Auth → Instrument → Routes
	var h http.Handler = mux
	h = middleware.Instrument(logger)(h)
	h = middleware.Auth(verifier, logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// newVerifier uses JWKS when configured; dev without JWKS accepts actor IDs as tokens
func newVerifier(cfg *config.Config, logger *slog.Logger) auth.TokenVerifier {
	if cfg.JWKSURL == "" {
		if cfg.Environment != "dev" {
			log.Fatalf("JWKS_URL is required outside dev")
		}
		logger.Warn("DEV MODE: bearer tokens are accepted as actor IDs (NEVER use in production!)")
		return auth.DevVerifier{}
	}

	verifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	return verifier
}

func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) *repositorySet {
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; notes are lost on restart")
		return &repositorySet{
			notes:    memory.NewNoteRepository(),
			projects: memory.NewProjectRepository(),
			actors:   memory.NewActorRepository(),
			close:    func() {},
		}

	case config.StoragePostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		logger.Info("database connected",
			"max_conns", postgres.MaxConns,
			"min_conns", postgres.MinConns,
		)

		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.ApplyMigrations(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		}
		return &repositorySet{
			notes:    postgres.NewNoteRepository(repoConfig),
			projects: postgres.NewProjectRepository(repoConfig),
			actors:   postgres.NewActorRepository(repoConfig),
			close:    pool.Close,
		}

	default:
		log.Fatalf("Unknown STORAGE %q (want %q or %q)", cfg.Storage, config.StoragePostgres, config.StorageMemory)
		return nil
	}
}
