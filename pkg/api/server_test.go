package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/wikiforge/wikiforge/pkg/jobs"
	"github.com/wikiforge/wikiforge/pkg/progress"
	"github.com/wikiforge/wikiforge/pkg/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *jobs.Manager) {
	t.Helper()
	cfg := store.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}
	db, err := store.NewClient(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mgr := jobs.NewManager(db)
	bus := progress.NewBus()
	return NewServer(mgr, bus, nil, nil, nil), mgr
}

func createTestJobBody() []byte {
	body, _ := json.Marshal(createJobRequest{
		RepoURL:  "https://github.com/acme/widgets",
		RepoType: "github",
		Owner:    "acme",
		Repo:     "widgets",
		Provider: "openai",
		ClientID: "client-1",
	})
	return body
}

func TestCreateJob_ReturnsJobID(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(createTestJobBody()))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp createJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.JobID)
}

func TestCreateJob_DuplicateReturnsExistingID(t *testing.T) {
	srv, _ := newTestServer(t)

	rec1 := httptest.NewRecorder()
	req1 := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(createTestJobBody()))
	srv.Handler().ServeHTTP(rec1, req1)
	var resp1 createJobResponse
	require.NoError(t, json.Unmarshal(rec1.Body.Bytes(), &resp1))

	rec2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(createTestJobBody()))
	srv.Handler().ServeHTTP(rec2, req2)

	require.Equal(t, http.StatusOK, rec2.Code)
	var resp2 createJobResponse
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp2))
	require.Equal(t, resp1.JobID, resp2.JobID)
}

func TestCreateJob_ValidationError(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(createJobRequest{})
	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJob_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/jobs/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetJob_ReturnsDetail(t *testing.T) {
	srv, mgr := newTestServer(t)
	ctx := context.Background()

	id, _, err := mgr.CreateJob(ctx, jobs.CreateRequest{
		RepoURL: "https://github.com/acme/widgets", RepoType: jobs.RepoTypeGitHub,
		Owner: "acme", Repo: "widgets", Provider: "openai", Language: "en",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+id, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var detail jobDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.Equal(t, id, detail.ID)
	require.Equal(t, "pending", detail.Status)
}

func TestListJobs_ClampsLimit(t *testing.T) {
	srv, mgr := newTestServer(t)
	ctx := context.Background()
	_, _, err := mgr.CreateJob(ctx, jobs.CreateRequest{
		RepoURL: "https://github.com/acme/widgets", RepoType: jobs.RepoTypeGitHub,
		Owner: "acme", Repo: "widgets", Provider: "openai", Language: "en",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/jobs?limit=9999", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var list listJobsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 100, list.Limit)
	require.Len(t, list.Jobs, 1)
}

func TestPauseJob_IllegalStateReturns400(t *testing.T) {
	srv, mgr := newTestServer(t)
	ctx := context.Background()
	id, _, err := mgr.CreateJob(ctx, jobs.CreateRequest{
		RepoURL: "https://github.com/acme/widgets", RepoType: jobs.RepoTypeGitHub,
		Owner: "acme", Repo: "widgets", Provider: "openai", Language: "en",
	})
	require.NoError(t, err)
	// Force the job into a terminal state so pause is no longer legal.
	_, err = mgr.CancelJob(ctx, id)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/jobs/"+id+"/pause", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelJob_Succeeds(t *testing.T) {
	srv, mgr := newTestServer(t)
	ctx := context.Background()
	id, _, err := mgr.CreateJob(ctx, jobs.CreateRequest{
		RepoURL: "https://github.com/acme/widgets", RepoType: jobs.RepoTypeGitHub,
		Owner: "acme", Repo: "widgets", Provider: "openai", Language: "en",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/jobs/"+id, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestStreamProgress_TerminalJobClosesImmediately(t *testing.T) {
	srv, mgr := newTestServer(t)
	ctx := context.Background()
	id, _, err := mgr.CreateJob(ctx, jobs.CreateRequest{
		RepoURL: "https://github.com/acme/widgets", RepoType: jobs.RepoTypeGitHub,
		Owner: "acme", Repo: "widgets", Provider: "openai", Language: "en",
	})
	require.NoError(t, err)
	_, err = mgr.CancelJob(ctx, id)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+id+"/progress/stream", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	scanner := bufio.NewScanner(bytes.NewReader(rec.Body.Bytes()))
	require.True(t, scanner.Scan())
	var frame streamFrame
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &frame))
	require.NotNil(t, frame.Job)
	require.Equal(t, "cancelled", frame.Job.Status)
	require.False(t, scanner.Scan(), "stream should close after the terminal snapshot")
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
