// Package store provides the SQLite-backed persistence layer: durable job,
// page, and token-stat tables accessed through a pooled *sql.DB with
// write-ahead-log concurrency.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds database configuration.
type Config struct {
	// Path is the SQLite database file path, e.g. "<data_root>/deepwiki/deepwiki.db".
	Path string

	// MaxOpenConns bounds the connection pool. WAL mode supports concurrent
	// readers alongside a single writer, so this is deliberately NOT pinned
	// to 1 the way a naive SQLite setup would; SQLite itself serializes
	// writers internally.
	MaxOpenConns int
	MaxIdleConns int

	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoadConfigFromEnv loads database configuration from environment variables
// with production-ready defaults.
func LoadConfigFromEnv() (Config, error) {
	dataRoot := getEnvOrDefault("WIKIFORGE_DATA_ROOT", "./data")
	path := filepath.Join(dataRoot, "deepwiki", "deepwiki.db")
	if override := os.Getenv("WIKIFORGE_DB_PATH"); override != "" {
		path = override
	}

	cfg := Config{
		Path:            path,
		MaxOpenConns:    8,
		MaxIdleConns:    4,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 15 * time.Minute,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("MaxIdleConns (%d) cannot exceed MaxOpenConns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("MaxOpenConns must be at least 1")
	}
	return nil
}

// dsn builds the sqlite3 DSN with WAL journaling, normal sync, and foreign
// key enforcement, per §4.A.
func (c Config) dsn() string {
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000", c.Path)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
