package config

// NotifyConfig controls terminal-status webhook notification.
type NotifyConfig struct {
	// WebhookURL is the incoming-webhook endpoint notified when a job
	// reaches a terminal status. Empty disables notification entirely.
	WebhookURL string `yaml:"webhook_url,omitempty"`

	// DashboardURL is linked from the notification body so an operator can
	// jump straight to the job.
	DashboardURL string `yaml:"dashboard_url,omitempty"`
}

// DefaultNotifyConfig returns the built-in notification defaults: disabled.
func DefaultNotifyConfig() *NotifyConfig {
	return &NotifyConfig{}
}
