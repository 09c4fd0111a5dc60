package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WikiforgeYAMLConfig represents the wikiforge.yaml file structure: every
// tunable knob other than the LLM provider roster, which lives in its own
// file so operators can rotate it independently.
type WikiforgeYAMLConfig struct {
	Defaults      *Defaults                      `yaml:"defaults"`
	Worker        *WorkerConfig                  `yaml:"worker"`
	Chunking      *ChunkingConfig                `yaml:"chunking"`
	Retrieval     *RetrievalConfig                `yaml:"retrieval"`
	RateLimit     *RateLimitConfig                `yaml:"rate_limit"`
	Budget        *BudgetConfig                   `yaml:"budget"`
	Retention     *RetentionConfig                `yaml:"retention"`
	Masking       *MaskingConfig                  `yaml:"masking"`
	Notify        *NotifyConfig                   `yaml:"notify"`
	EndpointPools map[string]*EndpointPoolConfig  `yaml:"endpoint_pools"`
}

// LLMProvidersYAMLConfig represents the llm-providers.yaml file structure.
type LLMProvidersYAMLConfig struct {
	LLMProviders map[string]LLMProviderConfig `yaml:"llm_providers"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load YAML files from configDir, expanding environment variables.
//  2. Merge built-in + user-defined LLM providers and endpoint pools.
//  3. Apply defaults for any unset values.
//  4. Validate all configuration.
//  5. Return a Config ready for use.
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"llm_providers", stats.LLMProviders,
		"endpoint_pools", stats.EndpointPools)

	return cfg, nil
}

type configLoader struct {
	configDir string
}

func (l *configLoader) readYAML(filename string, out interface{}) error {
	path := filepath.Join(l.configDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // optional file; caller keeps zero-value out
		}
		return err
	}
	expanded := ExpandEnv(data)
	if err := yaml.Unmarshal(expanded, out); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidYAML, err)
	}
	return nil
}

func load(configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	var wikiforgeCfg WikiforgeYAMLConfig
	if err := loader.readYAML("wikiforge.yaml", &wikiforgeCfg); err != nil {
		return nil, NewLoadError("wikiforge.yaml", err)
	}

	var providersCfg LLMProvidersYAMLConfig
	if err := loader.readYAML("llm-providers.yaml", &providersCfg); err != nil {
		return nil, NewLoadError("llm-providers.yaml", err)
	}

	builtin := GetBuiltinConfig()
	llmProviders := mergeLLMProviders(builtin.LLMProviders, providersCfg.LLMProviders)
	endpointPools := mergeEndpointPools(map[string]*EndpointPoolConfig{}, wikiforgeCfg.EndpointPools)

	defaults := wikiforgeCfg.Defaults
	if defaults == nil {
		defaults = DefaultDefaults()
	} else {
		applyDefaultsFallback(defaults, DefaultDefaults())
	}

	worker := wikiforgeCfg.Worker
	if worker == nil {
		worker = DefaultWorkerConfig()
	}
	chunking := wikiforgeCfg.Chunking
	if chunking == nil {
		chunking = DefaultChunkingConfig()
	}
	retrieval := wikiforgeCfg.Retrieval
	if retrieval == nil {
		retrieval = DefaultRetrievalConfig()
	}
	rateLimit := wikiforgeCfg.RateLimit
	if rateLimit == nil {
		rateLimit = DefaultRateLimitConfig()
	}
	budget := wikiforgeCfg.Budget
	if budget == nil {
		budget = DefaultBudgetConfig()
	}
	retention := wikiforgeCfg.Retention
	if retention == nil {
		retention = DefaultRetentionConfig()
	}
	masking := wikiforgeCfg.Masking
	if masking == nil {
		masking = DefaultMaskingConfig()
	}
	notify := wikiforgeCfg.Notify
	if notify == nil {
		notify = DefaultNotifyConfig()
	}

	return &Config{
		configDir:           configDir,
		Defaults:            defaults,
		LLMProviderRegistry: NewLLMProviderRegistry(llmProviders),
		Worker:              worker,
		Chunking:            chunking,
		Retrieval:           retrieval,
		RateLimit:           rateLimit,
		Budget:              budget,
		Retention:           retention,
		Masking:             masking,
		Notify:              notify,
		EndpointPools:       endpointPools,
	}, nil
}

// applyDefaultsFallback fills any zero-valued field in dst with the value
// from fallback. Simple field-by-field, mirroring the teacher's style of
// explicit "if unset, use built-in" checks rather than a reflection-based merge.
func applyDefaultsFallback(dst, fallback *Defaults) {
	if dst.Provider == "" {
		dst.Provider = fallback.Provider
	}
	if dst.Language == "" {
		dst.Language = fallback.Language
	}
	if dst.MaxPageRetries == 0 {
		dst.MaxPageRetries = fallback.MaxPageRetries
	}
}
