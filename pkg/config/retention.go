package config

import "time"

// RetentionConfig controls data retention and cleanup behavior.
type RetentionConfig struct {
	// JobRetentionDays is how many days to keep terminal jobs (and their
	// pages) before they are deleted by the cleanup service.
	JobRetentionDays int `yaml:"job_retention_days"`

	// WikiCacheRetentionDays bounds how long stale wiki-cache JSON artifacts
	// are kept after their owning job has been deleted.
	WikiCacheRetentionDays int `yaml:"wiki_cache_retention_days"`

	// CleanupInterval is how often the cleanup loop runs.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		JobRetentionDays:       90,
		WikiCacheRetentionDays: 90,
		CleanupInterval:        12 * time.Hour,
	}
}
