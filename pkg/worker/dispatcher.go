package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wikiforge/wikiforge/pkg/cache"
	"github.com/wikiforge/wikiforge/pkg/config"
	"github.com/wikiforge/wikiforge/pkg/failover"
	"github.com/wikiforge/wikiforge/pkg/jobs"
	"github.com/wikiforge/wikiforge/pkg/llmprovider"
	"github.com/wikiforge/wikiforge/pkg/masking"
	"github.com/wikiforge/wikiforge/pkg/metrics"
	"github.com/wikiforge/wikiforge/pkg/notify"
	"github.com/wikiforge/wikiforge/pkg/progress"
	"github.com/wikiforge/wikiforge/pkg/repo"
	"github.com/wikiforge/wikiforge/pkg/tokens"
)

// Dispatcher is the single long-running worker loop per process (spec
// §4.I). It owns no state that must survive a process restart: pending
// jobs are rediscovered from the store on every poll, and phase-0 chunks
// are rebuilt in memory whenever a job needs retrieval context, since
// chunks/embeddings are never persisted (spec §3).
type Dispatcher struct {
	cfg      *config.Config
	jobs     *jobs.Manager
	tokens   *tokens.Tracker
	bus      *progress.Bus
	cacheW   *cache.Writer
	notifier notify.Notifier
	masker   *masking.Service
	fetchers map[jobs.RepoType]repo.Fetcher
	logger   *slog.Logger

	providersMu sync.Mutex
	providers   map[string]*llmprovider.Provider

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New constructs a Dispatcher. notifier and masker may be nil (both
// degrade to no-ops per their own nil-safety).
func New(
	cfg *config.Config,
	jobManager *jobs.Manager,
	tokenTracker *tokens.Tracker,
	bus *progress.Bus,
	cacheWriter *cache.Writer,
	notifier notify.Notifier,
	masker *masking.Service,
	fetchers map[jobs.RepoType]repo.Fetcher,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		cfg:       cfg,
		jobs:      jobManager,
		tokens:    tokenTracker,
		bus:       bus,
		cacheW:    cacheWriter,
		notifier:  notifier,
		masker:    masker,
		fetchers:  fetchers,
		logger:    logger,
		providers: make(map[string]*llmprovider.Provider),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the dispatcher loop and the orphan sweep ticker in
// background goroutines.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(2)
	go d.run(ctx)
	go d.runOrphanSweep(ctx)
}

// Stop signals the dispatcher to exit and waits, up to
// config.WorkerConfig.GracefulShutdownTimeout, for the in-flight job to
// reach a phase boundary.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	timeout := d.cfg.Worker.GracefulShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	select {
	case <-done:
	case <-time.After(timeout):
		d.logger.Warn("Dispatcher stop timed out waiting for in-flight job", "timeout", timeout)
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	d.logger.Info("Dispatcher started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopCh:
			return
		default:
		}

		processed, err := d.pollOnce(ctx)
		if err != nil {
			d.logger.Error("Dispatcher poll failed", "error", d.mask(err))
			d.sleep(time.Second)
			continue
		}
		if !processed {
			d.sleep(d.pollInterval())
		}
	}
}

func (d *Dispatcher) pollInterval() time.Duration {
	if d.cfg.Worker.PollInterval > 0 {
		return d.cfg.Worker.PollInterval
	}
	return 5 * time.Second
}

func (d *Dispatcher) sleep(dur time.Duration) {
	select {
	case <-d.stopCh:
	case <-time.After(dur):
	}
}

// pollOnce implements spec §4.I steps 1-4: fetch the pending-job queue,
// take the oldest, re-read its status to protect against a lost
// cancellation, and dispatch it if still eligible. Returns whether a job
// was taken off the queue (so the caller can skip its poll-interval sleep).
func (d *Dispatcher) pollOnce(ctx context.Context) (bool, error) {
	pending, err := d.jobs.GetPendingJobs(ctx)
	if err != nil {
		return false, err
	}
	metrics.PendingJobs.Set(float64(len(pending)))
	if len(pending) == 0 {
		return false, nil
	}

	candidate := pending[0]
	current, err := d.jobs.GetJob(ctx, candidate.ID)
	if err != nil {
		return true, err
	}
	if current.Status.IsTerminal() || current.Status == jobs.StatusPaused {
		return true, nil
	}

	metrics.ActiveJobs.Set(1)
	d.processJob(ctx, current)
	metrics.ActiveJobs.Set(0)
	return true, nil
}

// shouldStop is the cooperative-cancellation predicate consulted between
// phases and before each page (spec §4.I).
func (d *Dispatcher) shouldStop(ctx context.Context, jobID string) bool {
	select {
	case <-d.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
	}

	current, err := d.jobs.GetJob(ctx, jobID)
	if err != nil {
		return false
	}
	return current.Status == jobs.StatusPaused || current.Status == jobs.StatusCancelled
}

// getOrCreateProvider returns the cached Provider for name, constructing
// it on first use. Provider clients are cached per-process and are
// thread-safe (spec §5). When name has an endpoint pool configured (spec
// §4.D), the provider's Completion/Embedding clients route through it
// instead of a single fixed endpoint.
func (d *Dispatcher) getOrCreateProvider(name string) (*llmprovider.Provider, error) {
	d.providersMu.Lock()
	defer d.providersMu.Unlock()

	if p, ok := d.providers[name]; ok {
		return p, nil
	}

	providerCfg, err := d.cfg.GetLLMProvider(name)
	if err != nil {
		return nil, err
	}

	var provider *llmprovider.Provider
	if poolCfg, ok := d.cfg.EndpointPools[name]; ok && poolCfg != nil {
		pool, perr := failover.NewPool(*poolCfg)
		if perr != nil {
			return nil, fmt.Errorf("build endpoint pool for %s: %w", name, perr)
		}
		provider, err = llmprovider.NewFailover(*providerCfg, pool)
	} else {
		provider, err = llmprovider.New(*providerCfg)
	}
	if err != nil {
		return nil, err
	}
	d.providers[name] = provider
	return provider, nil
}

func (d *Dispatcher) mask(err error) string {
	if d.masker == nil || err == nil {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	return d.masker.MaskError(err)
}

// emit pushes a progress event through the Bus, filling in totals from the
// freshest job row so callers don't each have to thread them through.
func (d *Dispatcher) emit(job *jobs.Job, status string, phase int, percent int, message string) {
	if d.bus == nil {
		return
	}
	d.bus.Emit(progress.Event{
		JobID:           job.ID,
		Status:          status,
		Phase:           phase,
		ProgressPercent: percent,
		Message:         message,
		Totals: progress.Totals{
			TotalPages:     job.TotalPages,
			CompletedPages: job.CompletedPages,
			FailedPages:    job.FailedPages,
		},
	})
}

func (d *Dispatcher) emitPage(job *jobs.Job, pageID, pageTitle, pageStatus string, errMsg string) {
	if d.bus == nil {
		return
	}
	d.bus.Emit(progress.Event{
		JobID:      job.ID,
		Status:     string(job.Status),
		Phase:      job.CurrentPhase,
		PageID:     pageID,
		PageTitle:  pageTitle,
		PageStatus: pageStatus,
		Error:      errMsg,
		Totals: progress.Totals{
			TotalPages:     job.TotalPages,
			CompletedPages: job.CompletedPages,
			FailedPages:    job.FailedPages,
		},
	})
}

// failJob records a permanent phase failure and notifies.
func (d *Dispatcher) failJob(ctx context.Context, job *jobs.Job, err error) {
	msg := d.mask(err)
	d.logger.Error("Job failed", "job_id", job.ID, "error", msg)

	if uerr := d.jobs.UpdateJobStatus(ctx, job.ID, jobs.StatusFailed, nil, nil, &msg); uerr != nil {
		d.logger.Error("Failed to persist job failure", "job_id", job.ID, "error", uerr)
	}
	metrics.JobsTerminal.WithLabelValues(string(jobs.StatusFailed)).Inc()

	reloaded, rerr := d.jobs.GetJob(ctx, job.ID)
	if rerr != nil {
		reloaded = job
		reloaded.Status = jobs.StatusFailed
		reloaded.ErrorMessage = msg
	}
	d.emit(reloaded, string(jobs.StatusFailed), reloaded.CurrentPhase, reloaded.ProgressPercent, msg)
	d.notifyTerminal(ctx, reloaded)
}

func (d *Dispatcher) notifyTerminal(ctx context.Context, job *jobs.Job) {
	if d.notifier == nil {
		return
	}
	d.notifier.NotifyTerminal(ctx, notify.TerminalInput{
		JobID:          job.ID,
		Owner:          job.Owner,
		Repo:           job.Repo,
		Status:         string(job.Status),
		TotalPages:     job.TotalPages,
		CompletedPages: job.CompletedPages,
		FailedPages:    job.FailedPages,
		TotalTokens:    int(job.TotalTokensUsed),
		ErrorMessage:   job.ErrorMessage,
	})
}
