package config

import "fmt"

// validate checks structural and cross-reference invariants across the
// loaded configuration. Field-level "required"/"min" tags are informational
// for operators reading the struct; validate() is the actual enforcement
// point, mirroring the teacher's validator package which likewise re-checks
// everything explicitly rather than trusting struct tags alone.
func validate(cfg *Config) error {
	if err := validateLLMProviders(cfg.LLMProviderRegistry); err != nil {
		return err
	}
	if err := validateWorker(cfg.Worker); err != nil {
		return err
	}
	if err := validateEndpointPools(cfg.EndpointPools, cfg.LLMProviderRegistry); err != nil {
		return err
	}
	if err := validateDefaults(cfg.Defaults, cfg.LLMProviderRegistry); err != nil {
		return err
	}
	return nil
}

func validateLLMProviders(registry *LLMProviderRegistry) error {
	for name, provider := range registry.GetAll() {
		if !provider.Kind.IsValid() {
			return NewValidationError("llm_provider", name, "kind", fmt.Errorf("%w: %q", ErrInvalidValue, provider.Kind))
		}
		if provider.Model == "" {
			return NewValidationError("llm_provider", name, "model", ErrMissingRequiredField)
		}
		if provider.MaxOutputTokens <= 0 {
			return NewValidationError("llm_provider", name, "max_output_tokens", ErrMissingRequiredField)
		}
		if provider.ContextWindowTokens <= 0 {
			return NewValidationError("llm_provider", name, "context_window_tokens", ErrMissingRequiredField)
		}
		style := provider.ResolvedStreamStyle()
		if !style.IsValid() {
			return NewValidationError("llm_provider", name, "stream_style", fmt.Errorf("%w: %q", ErrInvalidValue, style))
		}
	}
	return nil
}

func validateWorker(w *WorkerConfig) error {
	if w.PageConcurrency < 1 {
		return NewValidationError("worker", "", "page_concurrency", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	return nil
}

func validateEndpointPools(pools map[string]*EndpointPoolConfig, registry *LLMProviderRegistry) error {
	for providerName, pool := range pools {
		if !registry.Has(providerName) {
			return NewValidationError("endpoint_pool", providerName, "", fmt.Errorf("%w: no such LLM provider", ErrInvalidReference))
		}
		if len(pool.Endpoints) == 0 {
			return NewValidationError("endpoint_pool", providerName, "endpoints", ErrMissingRequiredField)
		}
		seen := make(map[string]bool, len(pool.Endpoints))
		for _, ep := range pool.Endpoints {
			if ep.Name == "" || ep.Endpoint == "" {
				return NewValidationError("endpoint_pool", providerName, "endpoints[].name/endpoint", ErrMissingRequiredField)
			}
			if seen[ep.Name] {
				return NewValidationError("endpoint_pool", providerName, "endpoints[].name", fmt.Errorf("%w: duplicate name %q", ErrInvalidValue, ep.Name))
			}
			seen[ep.Name] = true
		}
	}
	return nil
}

func validateDefaults(d *Defaults, registry *LLMProviderRegistry) error {
	if d.Provider != "" && !registry.Has(d.Provider) {
		return NewValidationError("defaults", "", "provider", fmt.Errorf("%w: %q", ErrInvalidReference, d.Provider))
	}
	if d.MaxPageRetries < 1 {
		return NewValidationError("defaults", "", "max_page_retries", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	return nil
}
