package chunking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wikiforge/wikiforge/pkg/config"
	"github.com/wikiforge/wikiforge/pkg/llmprovider"
)

// Chain is the embedder fallback chain (spec §4.E): an ordered list of
// named embedding backends tried in order at startup and on call-time
// failure, exposing the currently active one via ActiveEmbedder.
type Chain struct {
	mu       sync.Mutex
	order    []config.EmbedderKind
	backends map[config.EmbedderKind]llmprovider.EmbeddingClient
	active   int
	logger   *slog.Logger
}

// NewChain builds a fallback chain from the configured order and the set
// of embedding-capable providers resolved for this job; "builtin" is
// always present regardless of what's passed in.
func NewChain(logger *slog.Logger, order []config.EmbedderKind, backends map[config.EmbedderKind]llmprovider.EmbeddingClient) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	if backends == nil {
		backends = map[config.EmbedderKind]llmprovider.EmbeddingClient{}
	}
	if _, ok := backends[config.EmbedderKindBuiltin]; !ok {
		backends[config.EmbedderKindBuiltin] = BuiltinEmbedder{}
	}
	if len(order) == 0 {
		order = []config.EmbedderKind{config.EmbedderKindBuiltin}
	}

	c := &Chain{order: order, backends: backends, logger: logger}
	c.selectFirstAvailable()
	return c
}

func (c *Chain) selectFirstAvailable() {
	for i, kind := range c.order {
		if _, ok := c.backends[kind]; ok {
			c.active = i
			return
		}
	}
	c.active = 0
}

// ActiveEmbedder returns the kind currently selected (get_active_embedder
// in spec §4.E), so downstream metrics can report which backend was used.
func (c *Chain) ActiveEmbedder() config.EmbedderKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order[c.active]
}

// Embed calls the active embedder; on failure it advances to the next
// available backend in the chain and logs, retrying until the chain is
// exhausted.
func (c *Chain) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	start := c.active
	c.mu.Unlock()

	var lastErr error
	for i := 0; i < len(c.order); i++ {
		c.mu.Lock()
		idx := (start + i) % len(c.order)
		kind := c.order[idx]
		client, ok := c.backends[kind]
		c.mu.Unlock()
		if !ok {
			continue
		}

		vectors, err := llmprovider.EmbedWithRetry(ctx, client, texts)
		if err == nil {
			c.mu.Lock()
			c.active = idx
			c.mu.Unlock()
			return vectors, nil
		}

		lastErr = err
		c.logger.Warn("chunking: embedder failed, advancing fallback chain", "embedder", kind, "error", err)
	}
	return nil, fmt.Errorf("chunking: all embedders in fallback chain failed: %w", lastErr)
}

// EmbedBatch embeds chunks in batches of batchSize, assigning each surviving
// chunk's Embedding field and silently dropping chunks whose vector came
// back empty (spec §4.E's embedding invariant).
func EmbedBatch(ctx context.Context, chain *Chain, chunks []Chunk, batchSize int) ([]Chunk, error) {
	if batchSize <= 0 {
		batchSize = 32
	}

	var out []Chunk
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := chain.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}

		for i, c := range batch {
			if i >= len(vectors) || len(vectors[i]) == 0 {
				continue
			}
			c.Embedding = vectors[i]
			out = append(out, c)
		}
	}
	return out, nil
}
