package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	Storage     string // postgres | memory
	TablePrefix string
	JWKSURL     string
	CORSOrigins string
	// Realtime
	RedisURL          string // empty = single-instance hub
	WSSendBuffer      int    // outbound queue per connection
	KeepAliveInterval time.Duration
	// Collaborators
	SystemSettingsFile string // YAML; empty = built-in defaults
	// Logging
	LogDir      string // empty = stdout only
	LogMaxFiles int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:               getEnv("PORT", "8080"),
		Environment:        env,
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Storage:            strings.ToLower(getEnv("STORAGE", StoragePostgres)),
		TablePrefix:        getTablePrefix(env),
		JWKSURL:            getEnv("JWKS_URL", ""),
		CORSOrigins:        getEnv("CORS_ORIGINS", "http://localhost:3000"),
		RedisURL:           getEnv("REDIS_URL", ""),
		WSSendBuffer:       getEnvInt("WS_SEND_BUFFER", 64),
		KeepAliveInterval:  time.Duration(getEnvInt("KEEPALIVE_SECONDS", 10)) * time.Second,
		SystemSettingsFile: getEnv("SYSTEM_SETTINGS_FILE", ""),
		LogDir:             getEnv("LOG_DIR", ""),
		LogMaxFiles:        getEnvInt("LOG_MAX_FILES", 5),
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt falls back to defaultValue for missing, malformed or non-positive values
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
