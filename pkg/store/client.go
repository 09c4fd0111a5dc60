package store

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

// Client wraps a pooled *sql.DB and exposes the narrow query surface the
// rest of the system uses: execute, fetch-one, fetch-all, execute-insert,
// and a scoped transaction acquirer. Nothing above this package talks to
// database/sql directly.
type Client struct {
	db *stdsql.DB
}

// DB returns the underlying database connection for health checks.
func (c *Client) DB() *stdsql.DB {
	return c.db
}

// NewClientFromDB wraps an existing *sql.DB (useful for testing with :memory:).
func NewClientFromDB(db *stdsql.DB) *Client {
	return &Client{db: db}
}

// NewClient opens the SQLite database, applies pending migrations, and
// returns a ready-to-use Client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := stdsql.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Client{db: db}, nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// Execute runs a statement that doesn't return rows (INSERT/UPDATE/DELETE
// without needing the inserted ID) and returns the number of affected rows.
func (c *Client) Execute(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExecuteInsert runs an INSERT and returns the number of rows affected,
// matching the test-and-set idiom used throughout the Job Manager: callers
// check `affected == 1` to know whether a conditional UPDATE/INSERT matched.
func (c *Client) ExecuteInsert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return c.Execute(ctx, query, args...)
}

// FetchOne runs a query expected to return at most one row and scans it into dest.
// Returns ErrNoRows (database/sql semantics) when nothing matched.
func (c *Client) FetchOne(ctx context.Context, dest func(scan func(...interface{}) error) error, query string, args ...interface{}) error {
	row := c.db.QueryRowContext(ctx, query, args...)
	return dest(row.Scan)
}

// FetchAll runs a query and invokes scan once per row until rows are exhausted.
func (c *Client) FetchAll(ctx context.Context, query string, scan func(rows *stdsql.Rows) error, args ...interface{}) error {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// BeginTx starts a transaction scoped to ctx. Callers must Commit or Rollback.
func (c *Client) BeginTx(ctx context.Context) (*stdsql.Tx, error) {
	return c.db.BeginTx(ctx, nil)
}

func runMigrations(db *stdsql.DB) error {
	hasMigrations, err := hasEmbeddedMigrations()
	if err != nil {
		return fmt.Errorf("check embedded migrations: %w", err)
	}
	if !hasMigrations {
		return fmt.Errorf("no embedded migration files found — binary may be built incorrectly")
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite3 migrate driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "wikiforge", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	// Close only the migration source; closing m would also close the
	// underlying *sql.DB driver reference, breaking the shared pool.
	if err := sourceDriver.Close(); err != nil {
		return fmt.Errorf("close migration source: %w", err)
	}

	return nil
}
