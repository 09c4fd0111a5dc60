// Package repo implements the RepoFetcher collaborator (spec §1, §4.A):
// materializing a job's source repository onto local disk so the
// chunking pipeline (pkg/chunking) can walk it. Actual Git transport
// mechanics are out of scope per spec.md's explicit Non-goal ("repository
// cloning/Git transport mechanics (RepoFetcher interface only)") — the
// GitHub implementation here fetches file contents over the Contents REST
// API rather than speaking the git wire protocol.
package repo

import "context"

// Request describes which repository (and which ref/subset of it) to
// materialize locally.
type Request struct {
	Owner       string
	Repo        string
	Ref         string // branch, tag, or commit SHA; empty means the default branch
	AccessToken string
}

// Fetcher materializes a repository's working tree onto local disk and
// returns its root directory. Cleanup removes any temporary files the
// fetch created; callers must call it once done.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (dir string, cleanup func(), err error)
}
