package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is empty")

// Config holds process-wide settings read from the environment.
type Config struct {
	DatabaseURL string
	Port        string

	// AllowedOrigins is the CORS allow-list.
	AllowedOrigins []string

	SessionTTL time.Duration

	// LoginRatePerMin bounds login attempts per client address.
	LoginRatePerMin int

	CatalogCacheTTL time.Duration
	// CatalogFile, if set, is a YAML catalog loaded into the database at startup.
	CatalogFile string

	DBSlowQuery time.Duration
}

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:8888",
}

// LoadFromEnv loads configuration from environment variables.
//
// Environment variables:
//   - DATABASE_URL: Postgres DSN (required)
//   - PORT: listen port (default: 5050)
//   - ALLOWED_ORIGINS: comma separated CORS origins (default: local dev servers)
//   - SESSION_TTL: session lifetime as a Go duration (default: 8h)
//   - LOGIN_RATE_PER_MIN: login attempts per minute per client (default: 10)
//   - CATALOG_CACHE_TTL: material/density cache lifetime (default: 5m)
//   - CATALOG_FILE: optional YAML catalog to import on startup
//   - DB_SLOW_QUERY_MS: slow query log threshold (default: 100)
func LoadFromEnv() Config {
	cfg := Config{
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Port:            strings.TrimSpace(os.Getenv("PORT")),
		AllowedOrigins:  splitList(os.Getenv("ALLOWED_ORIGINS")),
		SessionTTL:      durationEnv("SESSION_TTL", 8*time.Hour),
		LoginRatePerMin: intEnv("LOGIN_RATE_PER_MIN", 10),
		CatalogCacheTTL: durationEnv("CATALOG_CACHE_TTL", 5*time.Minute),
		CatalogFile:     strings.TrimSpace(os.Getenv("CATALOG_FILE")),
		DBSlowQuery:     time.Duration(intEnv("DB_SLOW_QUERY_MS", 100)) * time.Millisecond,
	}
	if cfg.Port == "" {
		cfg.Port = "5050"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = defaultOrigins
	}
	return cfg
}

// Validate checks that required settings are present.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.LoginRatePerMin <= 0 {
		return errors.New("LOGIN_RATE_PER_MIN must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func intEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
