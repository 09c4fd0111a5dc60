package config

import "sync"

// BuiltinConfig holds built-in LLM provider defaults, available before any
// user YAML is loaded. User configuration overrides these by provider name.
type BuiltinConfig struct {
	LLMProviders map[string]LLMProviderConfig
}

var (
	builtinConfig     *BuiltinConfig
	builtinConfigOnce sync.Once
)

// GetBuiltinConfig returns the singleton built-in configuration (thread-safe, lazy-initialized).
func GetBuiltinConfig() *BuiltinConfig {
	builtinConfigOnce.Do(initBuiltinConfig)
	return builtinConfig
}

func initBuiltinConfig() {
	builtinConfig = &BuiltinConfig{
		LLMProviders: initBuiltinLLMProviders(),
	}
}

func initBuiltinLLMProviders() map[string]LLMProviderConfig {
	return map[string]LLMProviderConfig{
		"openai": {
			Kind:                ProviderKindOpenAI,
			Model:               "gpt-4o-mini",
			APIKeyEnv:           "OPENAI_API_KEY",
			BaseURL:             "https://api.openai.com/v1",
			MaxOutputTokens:     4096,
			ContextWindowTokens: 128000,
			Embedding:           true,
			EmbeddingModel:      "text-embedding-3-small",
			EmbeddingDimensions: 1536,
		},
		"anthropic": {
			Kind:                ProviderKindAnthropic,
			Model:               "claude-3-5-sonnet-20241022",
			APIKeyEnv:           "ANTHROPIC_API_KEY",
			BaseURL:             "https://api.anthropic.com",
			MaxOutputTokens:     4096,
			ContextWindowTokens: 200000,
			Quirks: ProviderQuirks{
				NoTemperatureWithTopP: true,
				RequireMaxTokens:      true,
				SplitSystemPrompt:     true,
			},
		},
		"google": {
			Kind:                ProviderKindGoogle,
			Model:               "gemini-1.5-flash",
			APIKeyEnv:           "GOOGLE_API_KEY",
			BaseURL:             "https://generativelanguage.googleapis.com/v1beta",
			MaxOutputTokens:     8192,
			ContextWindowTokens: 1000000,
			Embedding:           true,
			EmbeddingModel:      "text-embedding-004",
			EmbeddingDimensions: 768,
		},
		"ollama": {
			Kind:                ProviderKindOllama,
			Model:               "qwen2.5-coder",
			BaseURL:             "http://localhost:11434",
			MaxOutputTokens:     4096,
			ContextWindowTokens: 32768,
			Embedding:           true,
			EmbeddingModel:      "nomic-embed-text",
			EmbeddingDimensions: 768,
		},
		"openrouter": {
			Kind:                ProviderKindOpenRouter,
			Model:               "openai/gpt-4o-mini",
			APIKeyEnv:           "OPENROUTER_API_KEY",
			BaseURL:             "https://openrouter.ai/api/v1",
			MaxOutputTokens:     4096,
			ContextWindowTokens: 128000,
		},
		"deepseek": {
			Kind:                ProviderKindDeepSeek,
			Model:               "deepseek-chat",
			APIKeyEnv:           "DEEPSEEK_API_KEY",
			BaseURL:             "https://api.deepseek.com",
			MaxOutputTokens:     4096,
			ContextWindowTokens: 64000,
		},
		"zhipu": {
			Kind:                ProviderKindZhipu,
			StreamStyle:         StreamStyleOpenAI,
			Model:               "glm-4-flash",
			APIKeyEnv:           "ZHIPU_API_KEY",
			BaseURL:             "https://open.bigmodel.cn/api/paas/v4",
			MaxOutputTokens:     4096,
			ContextWindowTokens: 128000,
		},
	}
}
