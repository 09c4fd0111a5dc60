// Package metrics defines the Prometheus gauges and counters exposed on
// /metrics: worker queue depth and per-provider token usage, the two
// numbers an operator watches to tell a stuck pipeline from a busy one.
// Grounded on the counter/gauge-vec-plus-init()-registration idiom used
// throughout the pack (e.g. prow's webhookCounter/responseCounter), with
// promauto replacing the manual prometheus.MustRegister call.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PendingJobs is the current depth of the dispatcher's pending-job
	// queue, sampled on each poll.
	PendingJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wikiforge_worker_pending_jobs",
		Help: "Number of jobs currently eligible for dispatch.",
	})

	// ActiveJobs reports whether the single dispatcher is currently
	// processing a job (1) or idle (0).
	ActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wikiforge_worker_active_jobs",
		Help: "1 while the dispatcher is processing a job, 0 when idle.",
	})

	// TokensTotal counts tokens recorded against job_token_stats, by
	// provider and stage (chunking or provider-completion).
	TokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikiforge_tokens_total",
		Help: "Total tokens recorded, partitioned by provider and stage.",
	}, []string{"provider", "stage"})

	// PagesGenerated counts completed page generations by terminal status.
	PagesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikiforge_pages_generated_total",
		Help: "Total pages that reached a terminal per-page status.",
	}, []string{"status"})

	// JobsTerminal counts jobs reaching each terminal status.
	JobsTerminal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikiforge_jobs_terminal_total",
		Help: "Total jobs that reached a terminal status.",
	}, []string{"status"})
)
