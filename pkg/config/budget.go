package config

import "time"

// RateLimitConfig configures the per-user sliding-window rate guard (§4.K).
// LimitPerWindow <= 0 means unlimited.
type RateLimitConfig struct {
	Window         time.Duration `yaml:"window"`
	LimitPerWindow int           `yaml:"limit_per_window"`
}

// DefaultRateLimitConfig returns the built-in rate-limit defaults.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Window:         60 * time.Second,
		LimitPerWindow: 0,
	}
}

// BudgetConfig configures the per-(user, month) cost budget guard (§4.K).
// MonthlyLimitUSD <= 0 means unlimited.
type BudgetConfig struct {
	MonthlyLimitUSD float64 `yaml:"monthly_limit_usd"`
}

// DefaultBudgetConfig returns the built-in budget defaults (unlimited).
func DefaultBudgetConfig() *BudgetConfig {
	return &BudgetConfig{MonthlyLimitUSD: 0}
}
