package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// GitHubFetcher implements Fetcher by walking the GitHub Contents API
// recursively and downloading each file into a fresh temp directory,
// mirroring the recursive-listing pattern in pkg/runbook/github.go but
// fetching every file (not just markdown) since the chunking pipeline
// needs the whole tree.
type GitHubFetcher struct {
	httpClient *http.Client
	apiBase    string
	logger     *slog.Logger
}

// NewGitHubFetcher constructs a GitHubFetcher. apiBase defaults to
// https://api.github.com; tests override it to point at an httptest server.
func NewGitHubFetcher(logger *slog.Logger) *GitHubFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &GitHubFetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiBase:    "https://api.github.com",
		logger:     logger,
	}
}

type githubContentItem struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"` // "file" or "dir"
	DownloadURL string `json:"download_url"`
}

// Fetch recursively lists and downloads req.Owner/req.Repo@req.Ref into a
// new temp directory, returning its root and a cleanup func that removes it.
func (f *GitHubFetcher) Fetch(ctx context.Context, req Request) (string, func(), error) {
	dir, err := os.MkdirTemp("", "wikiforge-repo-*")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	if err := f.downloadRecursive(ctx, req, "", dir); err != nil {
		cleanup()
		return "", nil, err
	}

	return dir, cleanup, nil
}

func (f *GitHubFetcher) downloadRecursive(ctx context.Context, req Request, path, localRoot string) error {
	items, err := f.listContents(ctx, req, path)
	if err != nil {
		return err
	}

	for _, item := range items {
		switch item.Type {
		case "file":
			if err := f.downloadFile(ctx, req, item, localRoot); err != nil {
				f.logger.Warn("repo: failed to download file, skipping", "path", item.Path, "error", err)
			}
		case "dir":
			if err := f.downloadRecursive(ctx, req, item.Path, localRoot); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *GitHubFetcher) listContents(ctx context.Context, req Request, path string) ([]githubContentItem, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s", f.apiBase, req.Owner, req.Repo, path)
	if req.Ref != "" {
		apiURL += "?ref=" + req.Ref
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create contents request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/vnd.github.v3+json")
	f.setAuthHeader(httpReq, req.AccessToken)

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list contents at %q: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned HTTP %d for path %q", resp.StatusCode, path)
	}

	var items []githubContentItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode contents response for %q: %w", path, err)
	}
	return items, nil
}

func (f *GitHubFetcher) downloadFile(ctx context.Context, req Request, item githubContentItem, localRoot string) error {
	if item.DownloadURL == "" {
		return fmt.Errorf("no download URL for %q", item.Path)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, item.DownloadURL, nil)
	if err != nil {
		return fmt.Errorf("create download request: %w", err)
	}
	f.setAuthHeader(httpReq, req.AccessToken)

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("download %q: %w", item.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GitHub returned HTTP %d downloading %q", resp.StatusCode, item.Path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body for %q: %w", item.Path, err)
	}

	dest := filepath.Join(localRoot, filepath.FromSlash(item.Path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create directory for %q: %w", item.Path, err)
	}
	return os.WriteFile(dest, body, 0o644)
}

func (f *GitHubFetcher) setAuthHeader(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
