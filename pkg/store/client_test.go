package store

import (
	"context"
	stdsql "database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		Path:            filepath.Join(dir, "test.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 0,
		ConnMaxIdleTime: 0,
	}
	client, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClient_AppliesMigrations(t *testing.T) {
	client := newTestClient(t)

	for _, table := range []string{"jobs", "job_pages", "job_token_stats", "user_monthly_budget", "chat_usage_logs", "rate_limit_tracker"} {
		var name string
		err := client.FetchOne(context.Background(), func(scan func(...interface{}) error) error {
			return scan(&name)
		}, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table)
		require.NoError(t, err, "expected table %s to exist", table)
		require.Equal(t, table, name)
	}
}

func TestClient_ExecuteAndFetch(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	affected, err := client.Execute(ctx, `INSERT INTO jobs (id, repo_url, repo_type, owner, repo, provider, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		"job-1", "https://example.test/r", "github", "acme", "widgets", "openai", "2026-07-31T00:00:00Z", "2026-07-31T00:00:00Z")
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	var owner string
	err = client.FetchOne(ctx, func(scan func(...interface{}) error) error {
		return scan(&owner)
	}, "SELECT owner FROM jobs WHERE id = ?", "job-1")
	require.NoError(t, err)
	require.Equal(t, "acme", owner)

	count := 0
	err = client.FetchAll(ctx, "SELECT id FROM jobs", func(rows *stdsql.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		count++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestClient_Health(t *testing.T) {
	client := newTestClient(t)
	status, err := client.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "healthy", status.Status)
}
