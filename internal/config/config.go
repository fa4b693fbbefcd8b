package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	BaseURL            string
	GoogleClientID     string
	GoogleClientSecret string
	SessionSecret      string
	DatabaseURL        string // Postgres; takes precedence over DatabasePath
	DatabasePath       string // SQLite file; empty disables the SQL store
	GeminiAPIKey       string
	MaxSyncResults     int64
	// UndoWindow bounds how long after an action its undo stays available.
	UndoWindow time.Duration
	// ActionRetention is how long ledger entries are kept before physical
	// deletion. Independent of, and longer than, UndoWindow.
	ActionRetention time.Duration
	Env             string
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:               GetEnv("PORT", "8080"),
		BaseURL:            GetEnv("BASE_URL", "http://localhost:8080"),
		GoogleClientID:     GetEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: GetEnv("GOOGLE_CLIENT_SECRET", ""),
		SessionSecret:      GetEnv("SESSION_SECRET", ""),
		DatabaseURL:        GetEnv("DATABASE_URL", ""),
		DatabasePath:       GetEnv("DATABASE_PATH", "data/mailnick.db"),
		GeminiAPIKey:       GetEnv("GEMINI_API_KEY", ""),
		MaxSyncResults:     getEnvInt64("MAX_SYNC_RESULTS", 100),
		UndoWindow:         getEnvHours("UNDO_WINDOW_HOURS", 24),
		ActionRetention:    getEnvHours("ACTION_RETENTION_HOURS", 48),
		Env:                GetEnv("ENV", "development"),
	}, nil
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvHours(key string, defaultHours int) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * time.Hour
		}
	}
	return time.Duration(defaultHours) * time.Hour
}

func (c *Config) Validate() error {
	if c.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}
	if c.GoogleClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.UndoWindow >= c.ActionRetention {
		return fmt.Errorf("ACTION_RETENTION_HOURS must exceed UNDO_WINDOW_HOURS")
	}
	return nil
}
