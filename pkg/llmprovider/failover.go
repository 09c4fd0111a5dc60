package llmprovider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wikiforge/wikiforge/pkg/config"
	"github.com/wikiforge/wikiforge/pkg/failover"
)

// NewFailover constructs a Provider whose Completion and (if configured)
// Embedding clients route every call through pool (spec §4.D) instead of a
// single fixed endpoint: each call selects an endpoint, rebuilds a plain
// client against it, and retries across the pool's 2N budget on rate limits
// and transport failures.
func NewFailover(cfg config.LLMProviderConfig, pool *failover.Pool) (*Provider, error) {
	style := cfg.ResolvedStreamStyle()

	shaper, err := newCompletionClient(cfg, style)
	if err != nil {
		return nil, err
	}

	var embedding EmbeddingClient
	if cfg.Embedding {
		embedding = &failoverEmbeddingClient{cfg: cfg, pool: pool}
	}

	return &Provider{
		Kind:   cfg.Kind,
		Config: cfg,
		Completion: &failoverCompletionClient{
			cfg:    cfg,
			style:  style,
			pool:   pool,
			shaper: shaper,
		},
		Embedding: embedding,
	}, nil
}

// failoverCompletionClient is the CompletionClient the dispatcher uses when
// a provider has an endpoint pool configured. ConvertInputs/TrackUsage are
// pure functions of cfg, so they're served by shaper (built once, shared
// across concurrent calls); StreamCompletion rebuilds a fresh inner client
// per call against a holder scoped to that call, since Pool.Call mutates
// the client it's handed and a shared instance would race under concurrent
// page generation.
type failoverCompletionClient struct {
	cfg    config.LLMProviderConfig
	style  config.StreamStyle
	pool   *failover.Pool
	shaper CompletionClient
}

func (c *failoverCompletionClient) ConvertInputs(prompt string, kwargs map[string]interface{}) map[string]interface{} {
	return c.shaper.ConvertInputs(prompt, kwargs)
}

func (c *failoverCompletionClient) TrackUsage(lastResponse map[string]interface{}) Usage {
	return c.shaper.TrackUsage(lastResponse)
}

// StreamCompletion buffers one attempt's deltas in full before forwarding
// any of them, so a retry onto the next endpoint never emits a delta twice:
// the existing style clients all surface a non-2xx/rate-limit error before
// the first delta is sent, so the buffer is empty on the failing path and
// the retry is loss-free.
func (c *failoverCompletionClient) StreamCompletion(ctx context.Context, apiKwargs map[string]interface{}) (<-chan StreamDelta, <-chan error) {
	deltas := make(chan StreamDelta, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(deltas)
		defer close(errs)

		holder := &completionHolder{baseCfg: c.cfg, style: c.style}
		var buffered []StreamDelta

		err := c.pool.Call(ctx, holder, func(ctx context.Context, ep config.EndpointConfig) error {
			buffered = buffered[:0]
			innerDeltas, innerErrs := holder.client.StreamCompletion(ctx, apiKwargs)
			for d := range innerDeltas {
				buffered = append(buffered, d)
			}
			if innerErr := <-innerErrs; innerErr != nil {
				return asFailoverError(innerErr)
			}
			return nil
		})
		if err != nil {
			errs <- err
			return
		}

		for _, d := range buffered {
			deltas <- d
		}
	}()

	return deltas, errs
}

// completionHolder implements failover.Client: Reinitialize rebuilds a
// plain completion client against the endpoint the pool just selected.
type completionHolder struct {
	baseCfg config.LLMProviderConfig
	style   config.StreamStyle
	client  CompletionClient
}

func (h *completionHolder) Reinitialize(ep config.EndpointConfig) error {
	cfg := h.baseCfg
	cfg.BaseURL = ep.Endpoint

	client, err := newCompletionClient(cfg, h.style)
	if err != nil {
		return err
	}
	overrideAPIKey(client, ep.APIKey)
	h.client = client
	return nil
}

// failoverEmbeddingClient is the pool-backed EmbeddingClient counterpart.
type failoverEmbeddingClient struct {
	cfg  config.LLMProviderConfig
	pool *failover.Pool
}

func (c *failoverEmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	holder := &embeddingHolder{baseCfg: c.cfg}
	var result [][]float32

	err := c.pool.Call(ctx, holder, func(ctx context.Context, ep config.EndpointConfig) error {
		vectors, err := holder.client.Embed(ctx, texts)
		if err != nil {
			return asFailoverError(err)
		}
		result = vectors
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type embeddingHolder struct {
	baseCfg config.LLMProviderConfig
	client  EmbeddingClient
}

func (h *embeddingHolder) Reinitialize(ep config.EndpointConfig) error {
	cfg := h.baseCfg
	cfg.BaseURL = ep.Endpoint

	client := newEmbeddingClient(cfg)
	if client == nil {
		return fmt.Errorf("llmprovider: no embedding client for kind %q", cfg.Kind)
	}
	overrideAPIKey(client, ep.APIKey)
	h.client = client
	return nil
}

// overrideAPIKey applies an endpoint's explicit API key over the one the
// client built from its provider-level env var, when the endpoint carries
// one. Ollama-backed clients have no API key field and fall through as a
// no-op.
func overrideAPIKey(client interface{}, key string) {
	if key == "" {
		return
	}
	switch c := client.(type) {
	case *openAIStyleClient:
		c.apiKey = key
	case *anthropicStyleClient:
		c.apiKey = key
	case *googleStyleClient:
		c.apiKey = key
	case *openAIEmbeddingClient:
		c.apiKey = key
	case *googleEmbeddingClient:
		c.apiKey = key
	}
}

// asFailoverError converts a rate-limit classified ProviderError into a
// failover.RateLimitError so Pool.Call applies a cooldown and advances to
// the next endpoint instead of treating it as an ordinary failure.
func asFailoverError(err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Kind == KindRateLimit {
		return &failover.RateLimitError{RetryAfter: time.Duration(pe.RetryAfter) * time.Second, Err: err}
	}
	return err
}
