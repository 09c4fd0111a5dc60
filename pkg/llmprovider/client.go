// Package llmprovider abstracts over heterogeneous LLM backends behind a
// single interface per spec §4.C: completion streaming with per-vendor
// request shaping, and embedding with empty-vector retry.
package llmprovider

import (
	"context"

	"github.com/wikiforge/wikiforge/pkg/config"
)

// Mode selects how ConvertInputs shapes the outgoing request.
type Mode string

const (
	ModeLLM       Mode = "llm"
	ModeEmbedding Mode = "embedding"
)

// StreamDelta is one normalized text token off the provider stream.
// Heartbeat / role-only frames never reach the caller as deltas.
type StreamDelta struct {
	Text string
	Done bool
}

// Usage is the token accounting extracted from a completion response.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// CompletionClient is the capability family for chat/completion providers.
type CompletionClient interface {
	// ConvertInputs shapes a prompt plus sampling kwargs into the
	// provider-specific request body, applying this provider's quirks.
	ConvertInputs(prompt string, kwargs map[string]interface{}) map[string]interface{}

	// StreamCompletion executes the call and returns a channel of text
	// deltas. The channel is closed when the stream ends or ctx is
	// cancelled. Errors are delivered on errCh exactly once.
	StreamCompletion(ctx context.Context, apiKwargs map[string]interface{}) (<-chan StreamDelta, <-chan error)

	// TrackUsage extracts prompt/completion token counts from the last
	// response, when the provider reports them out of band from the stream.
	TrackUsage(lastResponse map[string]interface{}) Usage
}

// EmbeddingClient is the capability family for embedding providers.
type EmbeddingClient interface {
	// Embed returns one vector per input text; an entry is nil if the
	// provider returned an empty/missing vector for that input.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider bundles both capability families with the config the variant
// implementations were built from.
type Provider struct {
	Kind   config.ProviderKind
	Config config.LLMProviderConfig
	Completion CompletionClient
	Embedding  EmbeddingClient
}

// New constructs the capability implementations appropriate for cfg.Kind.
func New(cfg config.LLMProviderConfig) (*Provider, error) {
	style := cfg.ResolvedStreamStyle()

	completion, err := newCompletionClient(cfg, style)
	if err != nil {
		return nil, err
	}

	var embedding EmbeddingClient
	if cfg.Embedding {
		embedding = newEmbeddingClient(cfg)
	}

	return &Provider{
		Kind:       cfg.Kind,
		Config:     cfg,
		Completion: completion,
		Embedding:  embedding,
	}, nil
}
