// Package config provides centralized configuration loaded from environment
// variables. Shared by cmd/api and cmd/safecheck; nothing below cmd reads the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Store
	StoreDriver    string
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration
	SQLitePath     string

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool
	LogLevel    string

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Email (Resend)
	ResendAPIKey  string
	ResendBaseURL string
	EmailFrom     string

	// Inactivity job
	JobSchedule     string
	JobTimeout      time.Duration
	JobTriggerToken string
	DispatchWorkers int
	ScanWorkers     int
	SendRatePerSec  int
	SendTimeout     time.Duration

	// Maintenance
	NotificationRetention time.Duration
	CleanupInterval       time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	driver := strings.ToLower(envOr("STORE_DRIVER", DriverPostgres))
	dbURL := envOr("DATABASE_URL", envOr("POSTGRES_URL", ""))

	switch driver {
	case DriverPostgres:
		if dbURL == "" {
			return nil, fmt.Errorf("DATABASE_URL or POSTGRES_URL must be set for the postgres store")
		}
	case DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (postgres, sqlite, memory)", driver)
	}

	return &Config{
		StoreDriver:    driver,
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,
		SQLitePath:     envOr("SQLITE_PATH", "data/safecheck.db"),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),
		LogLevel:    envOr("LOG_LEVEL", "info"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:8080",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		ResendAPIKey:  envOr("RESEND_API_KEY", ""),
		ResendBaseURL: envOr("RESEND_BASE_URL", "https://api.resend.com"),
		EmailFrom:     envOr("EMAIL_FROM", "Safecheck <noreply@resend.dev>"),

		JobSchedule:     envOr("JOB_SCHEDULE", "@hourly"),
		JobTimeout:      envDuration("JOB_TIMEOUT", 10*time.Minute),
		JobTriggerToken: envOr("JOB_TRIGGER_TOKEN", ""),
		DispatchWorkers: envInt("DISPATCH_WORKERS", 4),
		ScanWorkers:     envInt("SCAN_WORKERS", 8),
		SendRatePerSec:  envInt("SEND_RATE_PER_SEC", 5),
		SendTimeout:     envDuration("SEND_TIMEOUT", 30*time.Second),

		NotificationRetention: envDuration("NOTIFICATION_RETENTION", 30*24*time.Hour),
		CleanupInterval:       envDuration("CLEANUP_INTERVAL", 6*time.Hour),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("90s", "2h") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
