package config

import (
	"fmt"
	"sync"
)

// ProviderQuirks captures per-vendor request-shaping rules that the provider
// registry must apply before issuing a request. These mirror the ad-hoc
// per-vendor branches that a hand-rolled multi-provider client accumulates
// over time; naming them here keeps llmprovider's client code declarative.
type ProviderQuirks struct {
	// StripSamplingForReasoningModels drops temperature/top_p for models that
	// reject sampling parameters entirely (reasoning-tier models).
	StripSamplingForReasoningModels bool `yaml:"strip_sampling_for_reasoning_models,omitempty"`

	// NoTemperatureWithTopP drops temperature whenever top_p is also set,
	// since some vendors reject both being present simultaneously.
	NoTemperatureWithTopP bool `yaml:"no_temperature_with_top_p,omitempty"`

	// RequireMaxTokens forces max_tokens to be set even if the caller didn't
	// request a limit, using MaxOutputTokens as the fallback value.
	RequireMaxTokens bool `yaml:"require_max_tokens,omitempty"`

	// DisableStreaming forces non-streaming requests even when the caller
	// asked for a stream; the client synthesizes a single terminal chunk.
	DisableStreaming bool `yaml:"disable_streaming,omitempty"`

	// SplitSystemPrompt moves the system prompt out of the messages array
	// into a dedicated top-level field (Anthropic-style wire shape).
	SplitSystemPrompt bool `yaml:"split_system_prompt,omitempty"`
}

// LLMProviderConfig defines one named LLM endpoint configuration: which
// vendor, which wire format, which model, and how to authenticate.
type LLMProviderConfig struct {
	Kind ProviderKind `yaml:"kind" validate:"required"`
	Model string `yaml:"model" validate:"required"`

	// StreamStyle selects the wire decoder. If empty, it is inferred from Kind.
	StreamStyle StreamStyle `yaml:"stream_style,omitempty"`

	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`

	MaxOutputTokens int `yaml:"max_output_tokens" validate:"required,min=1"`
	// ContextWindowTokens bounds how much retrieved context can be packed
	// into a single prompt before the page generator must trim it.
	ContextWindowTokens int `yaml:"context_window_tokens" validate:"required,min=1"`

	Temperature *float64 `yaml:"temperature,omitempty"`
	TopP        *float64 `yaml:"top_p,omitempty"`

	Quirks ProviderQuirks `yaml:"quirks,omitempty"`

	// Embedding marks this provider as usable for embedding requests too
	// (shares auth/base URL with the chat model family).
	Embedding bool `yaml:"embedding,omitempty"`
	// EmbeddingModel overrides Model when embedding; falls back to Model.
	EmbeddingModel string `yaml:"embedding_model,omitempty"`
	// EmbeddingDimensions is the vector length this provider returns.
	EmbeddingDimensions int `yaml:"embedding_dimensions,omitempty"`
}

func (c *LLMProviderConfig) resolvedStreamStyle() StreamStyle {
	if c.StreamStyle != "" {
		return c.StreamStyle
	}
	switch c.Kind {
	case ProviderKindOpenAI, ProviderKindDeepSeek, ProviderKindOpenRouter:
		return StreamStyleOpenAI
	case ProviderKindAnthropic:
		return StreamStyleAnthropicEvents
	case ProviderKindGoogle:
		return StreamStyleGoogle
	case ProviderKindOllama:
		return StreamStyleOllama
	case ProviderKindZhipu:
		return StreamStyleOpenAI
	default:
		return StreamStyleOpenAI
	}
}

// ResolvedStreamStyle returns StreamStyle if set, otherwise the style implied
// by Kind. Call sites should use this instead of reading StreamStyle directly.
func (c *LLMProviderConfig) ResolvedStreamStyle() StreamStyle {
	return c.resolvedStreamStyle()
}

// LLMProviderRegistry stores LLM provider configurations in memory with
// thread-safe access. Providers are looked up by name at call time so
// provider-chain failover (see pkg/failover) can walk a list of names.
type LLMProviderRegistry struct {
	providers map[string]*LLMProviderConfig
	mu        sync.RWMutex
}

// NewLLMProviderRegistry creates a new LLM provider registry.
func NewLLMProviderRegistry(providers map[string]*LLMProviderConfig) *LLMProviderRegistry {
	copied := make(map[string]*LLMProviderConfig, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &LLMProviderRegistry{providers: copied}
}

// Get retrieves an LLM provider configuration by name (thread-safe).
func (r *LLMProviderRegistry) Get(name string) (*LLMProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrLLMProviderNotFound, name)
	}
	return provider, nil
}

// GetAll returns all LLM provider configurations (thread-safe, returns a copy).
func (r *LLMProviderRegistry) GetAll() map[string]*LLMProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*LLMProviderConfig, len(r.providers))
	for k, v := range r.providers {
		result[k] = v
	}
	return result
}

// Has checks if an LLM provider exists in the registry (thread-safe).
func (r *LLMProviderRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.providers[name]
	return exists
}

// Len returns the number of LLM providers in the registry (thread-safe).
func (r *LLMProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// Names returns provider names in the order supplied by chain config;
// callers that need a stable failover order should use EndpointPoolConfig
// instead of relying on map iteration order here.
func (r *LLMProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for k := range r.providers {
		names = append(names, k)
	}
	return names
}
