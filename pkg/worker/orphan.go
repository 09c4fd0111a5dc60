package worker

import (
	"context"
	"time"

	"github.com/wikiforge/wikiforge/pkg/jobs"
)

// runOrphanSweep periodically resets pages left in_progress by a worker
// that crashed or was killed mid-page, independent of the per-job
// ResetStuckPages call made on phase-2 entry (spec §4.I's crash recovery
// is per-job; this ticker is defense in depth for jobs this process never
// picks back up on its own, e.g. because the dispatcher restarted while
// nothing was pending).
func (d *Dispatcher) runOrphanSweep(ctx context.Context) {
	defer d.wg.Done()

	interval := d.cfg.Worker.OrphanDetectionInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.sweepOnce(ctx)
		}
	}
}

func (d *Dispatcher) sweepOnce(ctx context.Context) {
	active, err := d.jobs.GetPendingJobs(ctx)
	if err != nil {
		d.logger.Error("Orphan sweep failed to list jobs", "error", d.mask(err))
		return
	}

	for _, job := range active {
		if job.Status != jobs.StatusGeneratingPages {
			continue
		}
		reset, err := d.jobs.ResetStuckPages(ctx, job.ID)
		if err != nil {
			d.logger.Error("Orphan sweep failed to reset stuck pages", "job_id", job.ID, "error", err)
			continue
		}
		if reset > 0 {
			d.logger.Info("Orphan sweep reset stuck pages", "job_id", job.ID, "count", reset)
		}
	}
}
