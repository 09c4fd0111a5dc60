package llmprovider

import (
	"fmt"

	"github.com/wikiforge/wikiforge/pkg/config"
)

func newCompletionClient(cfg config.LLMProviderConfig, style config.StreamStyle) (CompletionClient, error) {
	switch style {
	case config.StreamStyleOpenAI:
		return newOpenAIStyleClient(cfg), nil
	case config.StreamStyleAnthropic, config.StreamStyleAnthropicEvents:
		return newAnthropicStyleClient(cfg), nil
	case config.StreamStyleGoogle:
		return newGoogleStyleClient(cfg), nil
	case config.StreamStyleOllama:
		return newOllamaStyleClient(cfg), nil
	default:
		return nil, fmt.Errorf("llmprovider: unsupported stream style %q", style)
	}
}

func newEmbeddingClient(cfg config.LLMProviderConfig) EmbeddingClient {
	switch cfg.Kind {
	case config.ProviderKindOpenAI, config.ProviderKindDeepSeek, config.ProviderKindOpenRouter:
		return &openAIEmbeddingClient{openAIStyleClient: newOpenAIStyleClient(cfg)}
	case config.ProviderKindGoogle:
		return &googleEmbeddingClient{googleStyleClient: newGoogleStyleClient(cfg)}
	case config.ProviderKindOllama:
		return &ollamaEmbeddingClient{ollamaStyleClient: newOllamaStyleClient(cfg)}
	default:
		return nil
	}
}
