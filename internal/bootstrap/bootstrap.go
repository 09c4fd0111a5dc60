// Package bootstrap wires the pipeline's collaborators together from a
// loaded config.Config and an open store.Client: the job manager, token
// guards, progress bus, worker dispatcher, cleanup service, and the REST
// API server. It exists so cmd/wikiforge's daemon entrypoint and
// cmd/wikiforgectl's "serve" subcommand share one wiring path instead of
// drifting apart, the way the teacher's cmd/tarsy/main.go wires services
// inline and ultra-engineer's daemon.go delegates to internal/orchestrator.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/wikiforge/wikiforge/pkg/api"
	"github.com/wikiforge/wikiforge/pkg/cache"
	"github.com/wikiforge/wikiforge/pkg/cleanup"
	"github.com/wikiforge/wikiforge/pkg/config"
	"github.com/wikiforge/wikiforge/pkg/jobs"
	"github.com/wikiforge/wikiforge/pkg/masking"
	"github.com/wikiforge/wikiforge/pkg/notify"
	"github.com/wikiforge/wikiforge/pkg/progress"
	"github.com/wikiforge/wikiforge/pkg/repo"
	"github.com/wikiforge/wikiforge/pkg/store"
	"github.com/wikiforge/wikiforge/pkg/tokens"
	"github.com/wikiforge/wikiforge/pkg/worker"
)

// Options configures a Run invocation.
type Options struct {
	ConfigDir string
	DataRoot  string
	HTTPAddr  string
	Logger    *slog.Logger
}

// App is the set of wired collaborators a running process needs to start
// and stop in the right order.
type App struct {
	Config     *config.Config
	DB         *store.Client
	Jobs       *jobs.Manager
	Dispatcher *worker.Dispatcher
	Cleanup    *cleanup.Service
	API        *api.Server
	Logger     *slog.Logger
}

// Build loads configuration, opens the store, and wires every collaborator,
// without starting any background goroutines or HTTP listener yet — callers
// decide when to Start/Serve and how to handle shutdown.
func Build(ctx context.Context, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := config.Initialize(ctx, opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("initialize configuration: %w", err)
	}

	dbCfg, err := store.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	db, err := store.NewClient(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	jobManager := jobs.NewManager(db)
	tokenTracker := tokens.NewTracker(db)
	rateLimiter := tokens.NewRateLimiter(db, cfg.RateLimit)
	budgetTracker := tokens.NewBudgetTracker(db, cfg.Budget)
	bus := progress.NewBus()
	masker := masking.NewService(cfg.Masking)
	notifier := notify.NewWebhookNotifier(cfg.Notify)

	wikiCacheDir := filepath.Join(opts.DataRoot, "wikicache")
	cacheWriter := cache.NewWriter(wikiCacheDir)

	fetchers := map[jobs.RepoType]repo.Fetcher{
		jobs.RepoTypeGitHub: repo.NewGitHubFetcher(logger.With("component", "repo.github")),
	}

	dispatcher := worker.New(cfg, jobManager, tokenTracker, bus, cacheWriter, notifier, masker, fetchers,
		logger.With("component", "worker"))

	cleanupSvc := cleanup.NewService(cfg.Retention, jobManager, wikiCacheDir)

	apiServer := api.NewServer(jobManager, bus, rateLimiter, budgetTracker, logger.With("component", "api"))

	return &App{
		Config:     cfg,
		DB:         db,
		Jobs:       jobManager,
		Dispatcher: dispatcher,
		Cleanup:    cleanupSvc,
		API:        apiServer,
		Logger:     logger,
	}, nil
}

// Serve starts the dispatcher and cleanup service, then blocks serving HTTP
// until ctx is cancelled, returning after a graceful shutdown of all three.
func (a *App) Serve(ctx context.Context, addr string) error {
	a.Dispatcher.Start(ctx)
	a.Cleanup.Start(ctx)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           a.API.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.Logger.Info("HTTP server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			a.shutdown(httpSrv)
			return err
		}
	}

	a.shutdown(httpSrv)
	return nil
}

func (a *App) shutdown(httpSrv *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn("HTTP server shutdown did not complete cleanly", "error", err)
	}

	a.Dispatcher.Stop()
	a.Cleanup.Stop()

	if err := a.DB.Close(); err != nil {
		a.Logger.Warn("Failed to close database", "error", err)
	}
}
