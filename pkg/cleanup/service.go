// Package cleanup provides data retention and cleanup services.
package cleanup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/wikiforge/wikiforge/pkg/config"
	"github.com/wikiforge/wikiforge/pkg/jobs"
)

// Service periodically enforces retention policies:
//   - Deletes terminal jobs (and their pages/token stats, via FK cascade)
//     older than config.RetentionConfig.JobRetentionDays
//   - Removes stale wiki-cache JSON artifacts older than
//     config.RetentionConfig.WikiCacheRetentionDays
//
// Both operations are idempotent and safe to run from a single
// long-running process (§5's one dispatcher model; no cross-pod
// coordination is needed).
type Service struct {
	config       *config.RetentionConfig
	jobs         *jobs.Manager
	wikiCacheDir string

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service. wikiCacheDir is the directory
// wiki-cache JSON artifacts are written to (pkg/cache.Writer's dir).
func NewService(cfg *config.RetentionConfig, jobManager *jobs.Manager, wikiCacheDir string) *Service {
	return &Service{
		config:       cfg,
		jobs:         jobManager,
		wikiCacheDir: wikiCacheDir,
	}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Cleanup service started",
		"job_retention_days", s.config.JobRetentionDays,
		"wiki_cache_retention_days", s.config.WikiCacheRetentionDays,
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.deleteOldJobs(ctx)
	s.cleanupWikiCache()
}

func (s *Service) deleteOldJobs(ctx context.Context) {
	cutoff := time.Now().Add(-time.Duration(s.config.JobRetentionDays) * 24 * time.Hour)
	count, err := s.jobs.DeleteTerminalJobsOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: delete old jobs failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: deleted old terminal jobs", "count", count)
	}
}

// cleanupWikiCache removes wiki-cache JSON files older than the configured
// retention window. Artifacts are named independently of the job that
// produced them, so this scans the directory by file modification time
// rather than joining against the jobs table.
func (s *Service) cleanupWikiCache() {
	if s.wikiCacheDir == "" {
		return
	}

	entries, err := os.ReadDir(s.wikiCacheDir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("Retention: list wiki cache directory failed", "error", err)
		}
		return
	}

	cutoff := time.Now().Add(-time.Duration(s.config.WikiCacheRetentionDays) * 24 * time.Hour)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.wikiCacheDir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Error("Retention: remove stale wiki cache file failed", "path", path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		slog.Info("Retention: removed stale wiki cache artifacts", "count", removed)
	}
}
