package tokens

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikiforge/wikiforge/pkg/jobs"
	"github.com/wikiforge/wikiforge/pkg/store"
)

func newTestStore(t *testing.T) *store.Client {
	t.Helper()
	cfg := store.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}
	db, err := store.NewClient(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestJob(t *testing.T, db *store.Client) string {
	t.Helper()
	m := jobs.NewManager(db)
	id, _, err := m.CreateJob(context.Background(), jobs.CreateRequest{
		RepoURL: "https://github.com/acme/widgets", RepoType: jobs.RepoTypeGitHub,
		Owner: "acme", Repo: "widgets", Provider: "openai", Language: "en",
	})
	require.NoError(t, err)
	return id
}

func TestTracker_InitializeThenUpdateChunkingTokens(t *testing.T) {
	db := newTestStore(t)
	jobID := newTestJob(t, db)
	tr := NewTracker(db)
	ctx := context.Background()

	require.NoError(t, tr.InitializeJobTokens(ctx, jobID))
	require.NoError(t, tr.UpdateChunkingTokens(ctx, jobID, 100, 5))
	require.NoError(t, tr.UpdateChunkingTokens(ctx, jobID, 50, 2))

	stats, err := tr.GetJobTokens(ctx, jobID)
	require.NoError(t, err)
	require.Equal(t, int64(150), stats.ChunkingTotalTokens)
	require.Equal(t, int64(7), stats.ChunkingTotalChunks)
}

func TestTracker_UpdateProviderTokensAccumulatesTotal(t *testing.T) {
	db := newTestStore(t)
	jobID := newTestJob(t, db)
	tr := NewTracker(db)
	ctx := context.Background()

	require.NoError(t, tr.InitializeJobTokens(ctx, jobID))
	require.NoError(t, tr.UpdateProviderTokens(ctx, jobID, 100, 200))
	require.NoError(t, tr.UpdateProviderTokens(ctx, jobID, 10, 20))

	stats, err := tr.GetJobTokens(ctx, jobID)
	require.NoError(t, err)
	require.Equal(t, int64(110), stats.ProviderPromptTokens)
	require.Equal(t, int64(220), stats.ProviderCompletionTokens)
	require.Equal(t, int64(330), stats.ProviderTotalTokens)
}

func TestTracker_GetJobTokens_MissingReturnsErrNotFound(t *testing.T) {
	db := newTestStore(t)
	tr := NewTracker(db)
	_, err := tr.GetJobTokens(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTracker_ResetJobTokens(t *testing.T) {
	db := newTestStore(t)
	jobID := newTestJob(t, db)
	tr := NewTracker(db)
	ctx := context.Background()

	require.NoError(t, tr.InitializeJobTokens(ctx, jobID))
	require.NoError(t, tr.UpdateProviderTokens(ctx, jobID, 100, 200))
	require.NoError(t, tr.ResetJobTokens(ctx, jobID))

	stats, err := tr.GetJobTokens(ctx, jobID)
	require.NoError(t, err)
	require.Equal(t, int64(0), stats.ProviderTotalTokens)
}
