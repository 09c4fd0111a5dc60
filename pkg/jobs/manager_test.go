package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wikiforge/wikiforge/pkg/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := store.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}
	db, err := store.NewClient(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewManager(db)
}

func baseRequest() CreateRequest {
	return CreateRequest{
		RepoURL:  "https://github.com/acme/widgets",
		RepoType: RepoTypeGitHub,
		Owner:    "acme",
		Repo:     "widgets",
		Provider: "openai",
		Language: "en",
	}
}

func TestCreateJob_DuplicateReturnsExistingID(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id1, created1, err := m.CreateJob(ctx, baseRequest())
	require.NoError(t, err)
	require.True(t, created1)

	id2, created2, err := m.CreateJob(ctx, baseRequest())
	require.NoError(t, err)
	require.False(t, created2)
	require.Equal(t, id1, id2)
}

func TestCreateJob_AfterTerminalAllowsNewJob(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id1, _, err := m.CreateJob(ctx, baseRequest())
	require.NoError(t, err)

	require.NoError(t, m.UpdateJobStatus(ctx, id1, StatusCompleted, nil, nil, nil))

	id2, created, err := m.CreateJob(ctx, baseRequest())
	require.NoError(t, err)
	require.True(t, created)
	require.NotEqual(t, id1, id2)
}

func TestGetJob_NotFound(t *testing.T) {
	m := newTestManager(t)
	_, err := m.GetJob(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetWikiStructureAndPageLifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, _, err := m.CreateJob(ctx, baseRequest())
	require.NoError(t, err)

	pages := []PageSpec{
		{PageID: "page-1", Title: "Overview", Importance: ImportanceHigh},
		{PageID: "page-2", Title: "Setup", Importance: ImportanceMedium},
	}
	require.NoError(t, m.SetWikiStructure(ctx, id, "<wiki/>", pages))

	job, err := m.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 2, job.TotalPages)
	require.Equal(t, "<wiki/>", job.WikiStructure)

	next, err := m.GetNextPendingPage(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "page-1", next.PageID)

	errMsg := "boom"
	require.NoError(t, m.UpdatePageStatus(ctx, next.ID, PageStatusFailed, nil, nil, nil, &errMsg))

	failed, err := m.GetFailedPages(ctx, id)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.Equal(t, 1, failed[0].RetryCount)
	require.Equal(t, "boom", failed[0].LastError)
}

func TestPauseResumeCancelJob(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, _, err := m.CreateJob(ctx, baseRequest())
	require.NoError(t, err)

	ok, err := m.PauseJob(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	// Pausing an already-paused job fails the precondition.
	ok, err = m.PauseJob(ctx, id)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = m.ResumeJob(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.CancelJob(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	job, err := m.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, job.Status)
	require.NotNil(t, job.CompletedAt)

	// Cancelling a terminal job again fails the precondition.
	ok, err = m.CancelJob(ctx, id)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRetryFailedPage_ReopensTerminalJob(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, _, err := m.CreateJob(ctx, baseRequest())
	require.NoError(t, err)
	require.NoError(t, m.SetWikiStructure(ctx, id, "<wiki/>", []PageSpec{{PageID: "page-1", Title: "Overview"}}))

	page, err := m.GetNextPendingPage(ctx, id)
	require.NoError(t, err)
	errMsg := "failed"
	require.NoError(t, m.UpdatePageStatus(ctx, page.ID, PageStatusPermanentFailed, nil, nil, nil, &errMsg))
	require.NoError(t, m.UpdateJobStatus(ctx, id, StatusFailed, nil, nil, &errMsg))

	ok, err := m.RetryFailedPage(ctx, page.ID)
	require.NoError(t, err)
	require.True(t, ok)

	job, err := m.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StatusGeneratingPages, job.Status)

	reloaded, err := m.GetNextPendingPage(ctx, id)
	require.NoError(t, err)
	require.Equal(t, page.ID, reloaded.ID)
}

func TestIncrementJobPageCount(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, _, err := m.CreateJob(ctx, baseRequest())
	require.NoError(t, err)

	require.NoError(t, m.IncrementJobPageCount(ctx, id, 1, 0, 150))
	require.NoError(t, m.IncrementJobPageCount(ctx, id, 0, 1, 50))

	job, err := m.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 1, job.CompletedPages)
	require.Equal(t, 1, job.FailedPages)
	require.EqualValues(t, 200, job.TotalTokensUsed)
}

func TestResetStuckPages(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, _, err := m.CreateJob(ctx, baseRequest())
	require.NoError(t, err)
	require.NoError(t, m.SetWikiStructure(ctx, id, "<wiki/>", []PageSpec{{PageID: "page-1", Title: "Overview"}}))

	page, err := m.GetNextPendingPage(ctx, id)
	require.NoError(t, err)
	require.NoError(t, m.UpdatePageStatus(ctx, page.ID, PageStatusInProgress, nil, nil, nil, nil))

	reset, err := m.ResetStuckPages(ctx, id)
	require.NoError(t, err)
	require.EqualValues(t, 1, reset)

	reloaded, err := m.GetNextPendingPage(ctx, id)
	require.NoError(t, err)
	require.Equal(t, page.ID, reloaded.ID)
}

func TestDeleteJob(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, _, err := m.CreateJob(ctx, baseRequest())
	require.NoError(t, err)

	ok, err := m.DeleteJob(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = m.GetJob(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTerminalJobsOlderThan(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	oldID, _, err := m.CreateJob(ctx, baseRequest())
	require.NoError(t, err)
	phase, progress := 5, 100
	require.NoError(t, m.UpdateJobStatus(ctx, oldID, StatusCompleted, &phase, &progress, nil))
	_, err = m.db.Execute(ctx, `UPDATE jobs SET completed_at = ? WHERE id = ?`,
		formatTime(nowUTC().Add(-100*24*time.Hour)), oldID)
	require.NoError(t, err)

	req := baseRequest()
	req.Repo = "other"
	recentID, _, err := m.CreateJob(ctx, req)
	require.NoError(t, err)
	require.NoError(t, m.UpdateJobStatus(ctx, recentID, StatusCompleted, &phase, &progress, nil))

	req2 := baseRequest()
	req2.Repo = "still-running"
	runningID, _, err := m.CreateJob(ctx, req2)
	require.NoError(t, err)

	count, err := m.DeleteTerminalJobsOlderThan(ctx, nowUTC().Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	_, err = m.GetJob(ctx, oldID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = m.GetJob(ctx, recentID)
	require.NoError(t, err)
	_, err = m.GetJob(ctx, runningID)
	require.NoError(t, err)
}

func TestListJobsAndCountJobs(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, _, err := m.CreateJob(ctx, baseRequest())
	require.NoError(t, err)

	req2 := baseRequest()
	req2.Repo = "gizmos"
	_, _, err = m.CreateJob(ctx, req2)
	require.NoError(t, err)

	result, err := m.ListJobs(ctx, ListFilters{Owner: "acme"}, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 2, result.TotalCount)
	require.Len(t, result.Jobs, 2)

	count, err := m.CountJobs(ctx, ListFilters{Repo: "gizmos"})
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
