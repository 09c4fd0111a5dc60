// Package worker implements the Worker/Scheduler (spec §4.I): a single
// long-running dispatcher goroutine per process that claims the oldest
// eligible job, drives it through phase 0 (chunking + embedding), phase 1
// (structure generation), and phase 2 (page generation), and persists the
// wiki cache artifact on terminal success.
//
// Unlike tarsy's pkg/queue (a WorkerPool of N goroutines independently
// claiming sessions via FOR UPDATE SKIP LOCKED), spec §4.I/§5 call for
// exactly one dispatcher per process; concurrency only exists within phase
// 2, bounded by a per-job page semaphore. The dispatcher goroutine's poll
// loop, graceful Stop(), and orphan sweep ticker are adapted from that
// package's single-worker shape.
package worker

import (
	"log/slog"

	"github.com/wikiforge/wikiforge/pkg/jobs"
	"github.com/wikiforge/wikiforge/pkg/repo"
)

// fetcherFor resolves the RepoFetcher for a job's repo type. Only GitHub is
// wired today (pkg/repo's one implementation); other recognized RepoType
// values fail phase 0 with a clear error instead of panicking on a nil
// fetcher.
func (d *Dispatcher) fetcherFor(repoType jobs.RepoType) (repo.Fetcher, error) {
	f, ok := d.fetchers[repoType]
	if !ok {
		return nil, unsupportedRepoTypeError(repoType)
	}
	return f, nil
}

type unsupportedRepoTypeError jobs.RepoType

func (e unsupportedRepoTypeError) Error() string {
	return "worker: unsupported repo type: " + string(e)
}

func intPtr(v int) *int { return &v }

func loggerFor(base *slog.Logger, job *jobs.Job) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With("job_id", job.ID, "owner", job.Owner, "repo", job.Repo, "provider", job.Provider)
}
