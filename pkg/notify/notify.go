// Package notify sends a terminal-status notification for a finished job.
// Adapted from tarsy's pkg/slack: same nil-safe, fail-open service shape,
// generalized from a threaded Slack conversation to a single one-shot
// webhook post, and from alert/analysis text to job id, status, page
// counts, and token usage.
package notify

import (
	"context"
	"log/slog"
	"time"

	goslack "github.com/slack-go/slack"

	"github.com/wikiforge/wikiforge/pkg/config"
)

// TerminalInput carries the fields reported when a job reaches a terminal
// status (§4.I step 10b).
type TerminalInput struct {
	JobID          string
	Owner          string
	Repo           string
	Status         string // completed, partially_completed, failed, cancelled
	TotalPages     int
	CompletedPages int
	FailedPages    int
	TotalTokens    int
	ErrorMessage   string
}

// Notifier delivers a terminal-status notification. Implementations must
// be safe to call with a nil receiver (no-op) and must never return an
// error that the caller is expected to act on: delivery failures are
// logged, not propagated, so a flaky notification channel never fails a job.
type Notifier interface {
	NotifyTerminal(ctx context.Context, input TerminalInput)
}

// WebhookNotifier posts a terminal notification to an incoming webhook
// using the slack-go SDK's PostWebhook helper. Nil-safe: all methods are
// no-ops when the receiver is nil.
type WebhookNotifier struct {
	webhookURL   string
	dashboardURL string
	logger       *slog.Logger
	post         func(url string, msg *goslack.WebhookMessage) error
}

// NewWebhookNotifier constructs a WebhookNotifier from cfg. Returns nil if
// WebhookURL is empty, so callers can wire the result directly into the
// worker without a separate "is notification enabled" check.
func NewWebhookNotifier(cfg *config.NotifyConfig) *WebhookNotifier {
	if cfg == nil || cfg.WebhookURL == "" {
		return nil
	}
	return &WebhookNotifier{
		webhookURL:   cfg.WebhookURL,
		dashboardURL: cfg.DashboardURL,
		logger:       slog.Default().With("component", "notify"),
		post:         goslack.PostWebhook,
	}
}

// NotifyTerminal posts the job's terminal outcome. Fail-open: delivery
// errors are logged, never returned.
func (n *WebhookNotifier) NotifyTerminal(ctx context.Context, input TerminalInput) {
	if n == nil {
		return
	}

	msg := buildWebhookMessage(input, n.dashboardURL)

	done := make(chan error, 1)
	go func() { done <- n.post(n.webhookURL, msg) }()

	select {
	case err := <-done:
		if err != nil {
			n.logger.Error("failed to send terminal notification",
				"job_id", input.JobID, "status", input.Status, "error", err)
		}
	case <-ctx.Done():
		n.logger.Warn("terminal notification cancelled before delivery",
			"job_id", input.JobID, "status", input.Status)
	case <-time.After(10 * time.Second):
		n.logger.Error("terminal notification timed out",
			"job_id", input.JobID, "status", input.Status)
	}
}
