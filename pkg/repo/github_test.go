package repo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFetcher(server *httptest.Server) *GitHubFetcher {
	f := NewGitHubFetcher(nil)
	f.httpClient = server.Client()
	f.apiBase = server.URL
	return f
}

func TestGitHubFetcher_DownloadsNestedTree(t *testing.T) {
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/acme/widgets/contents/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path[len("/repos/acme/widgets/contents/"):]
		var items []githubContentItem
		switch path {
		case "":
			items = []githubContentItem{
				{Name: "main.go", Path: "main.go", Type: "file", DownloadURL: "/raw/main.go"},
				{Name: "internal", Path: "internal", Type: "dir"},
			}
		case "internal":
			items = []githubContentItem{
				{Name: "helper.go", Path: "internal/helper.go", Type: "file", DownloadURL: "/raw/internal/helper.go"},
			}
		default:
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(items)
	})

	mux.HandleFunc("/raw/main.go", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("package main\n"))
	})
	mux.HandleFunc("/raw/internal/helper.go", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("package internal\n"))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	f := newTestFetcher(server)
	dir, cleanup, err := f.Fetch(context.Background(), Request{Owner: "acme", Repo: "widgets"})
	require.NoError(t, err)
	defer cleanup()

	main, err := os.ReadFile(filepath.Join(dir, "main.go"))
	require.NoError(t, err)
	require.Equal(t, "package main\n", string(main))

	helper, err := os.ReadFile(filepath.Join(dir, "internal", "helper.go"))
	require.NoError(t, err)
	require.Equal(t, "package internal\n", string(helper))
}

func TestGitHubFetcher_SendsAuthHeader(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/contents/", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]githubContentItem{})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := newTestFetcher(server)
	_, cleanup, err := f.Fetch(context.Background(), Request{Owner: "acme", Repo: "widgets", AccessToken: "tok-123"})
	require.NoError(t, err)
	defer cleanup()

	require.Equal(t, "Bearer tok-123", gotAuth)
}

func TestGitHubFetcher_CleanupRemovesDir(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/contents/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]githubContentItem{})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := newTestFetcher(server)
	dir, cleanup, err := f.Fetch(context.Background(), Request{Owner: "acme", Repo: "widgets"})
	require.NoError(t, err)

	cleanup()
	_, statErr := os.Stat(dir)
	require.True(t, os.IsNotExist(statErr))
}
