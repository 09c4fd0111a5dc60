package config

// Config is the umbrella configuration object encapsulating all registries
// and tuning knobs. This is the primary object returned by Initialize and
// threaded through cmd/wikiforge's wiring.
type Config struct {
	configDir string

	Defaults            *Defaults
	LLMProviderRegistry *LLMProviderRegistry
	Worker              *WorkerConfig
	Chunking            *ChunkingConfig
	Retrieval           *RetrievalConfig
	RateLimit           *RateLimitConfig
	Budget              *BudgetConfig
	Retention           *RetentionConfig
	Masking             *MaskingConfig
	Notify              *NotifyConfig

	// EndpointPools maps a provider name to its failover pool configuration.
	// Most providers run with a single implicit endpoint; only providers
	// explicitly listed here get pool-managed failover.
	EndpointPools map[string]*EndpointPoolConfig
}

// ConfigStats summarizes loaded configuration for startup logging.
type ConfigStats struct {
	LLMProviders  int
	EndpointPools int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		LLMProviders:  c.LLMProviderRegistry.Len(),
		EndpointPools: len(c.EndpointPools),
	}
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetLLMProvider retrieves an LLM provider configuration by name.
func (c *Config) GetLLMProvider(name string) (*LLMProviderConfig, error) {
	return c.LLMProviderRegistry.Get(name)
}
