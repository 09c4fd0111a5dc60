package config

import "time"

// EndpointConfig is one named (url, key) pair behind the failover pool.
// Mirrors the "{name, endpoint, api_key, api_version?, use_v1?}" record shape
// that the merge order in loadEndpoints assembles from several sources.
type EndpointConfig struct {
	Name       string `yaml:"name" json:"name" validate:"required"`
	Endpoint   string `yaml:"endpoint" json:"endpoint" validate:"required"`
	APIKey     string `yaml:"api_key" json:"api_key"`
	APIVersion string `yaml:"api_version,omitempty" json:"api_version,omitempty"`
	UseV1      bool   `yaml:"use_v1,omitempty" json:"use_v1,omitempty"`
}

// EndpointPoolConfig configures an Endpoint Failover Pool instance (§4.D).
type EndpointPoolConfig struct {
	Endpoints []EndpointConfig `yaml:"endpoints"`

	// DefaultCooldown is used when a 429 response carries no Retry-After header.
	DefaultCooldown time.Duration `yaml:"default_cooldown"`

	// FailureCooldown is imposed after ConsecutiveFailureLimit non-rate-limit
	// failures in a row on one endpoint.
	FailureCooldown time.Duration `yaml:"failure_cooldown"`

	// ConsecutiveFailureLimit is how many non-rate-limit failures in a row
	// before an endpoint is cooled down.
	ConsecutiveFailureLimit int `yaml:"consecutive_failure_limit"`
}

// DefaultEndpointPoolConfig returns the built-in failover pool defaults
// (empty endpoint list — callers populate via LoadEndpoints).
func DefaultEndpointPoolConfig() *EndpointPoolConfig {
	return &EndpointPoolConfig{
		DefaultCooldown:         60 * time.Second,
		FailureCooldown:         90 * time.Second,
		ConsecutiveFailureLimit: 3,
	}
}
