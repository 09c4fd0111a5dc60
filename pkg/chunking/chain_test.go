package chunking

import (
	"context"
	"errors"
	"testing"

	"github.com/wikiforge/wikiforge/pkg/config"
	"github.com/wikiforge/wikiforge/pkg/llmprovider"
)

type stubEmbedder struct {
	err     error
	vectors [][]float32
}

func (s stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

var _ llmprovider.EmbeddingClient = stubEmbedder{}

func TestChain_FallsBackOnFailure(t *testing.T) {
	chain := NewChain(nil,
		[]config.EmbedderKind{config.EmbedderKindOpenAI, config.EmbedderKindBuiltin},
		map[config.EmbedderKind]llmprovider.EmbeddingClient{
			config.EmbedderKindOpenAI: stubEmbedder{err: errors.New("boom")},
		},
	)

	vectors, err := chain.Embed(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("expected fallback to builtin to succeed, got %v", err)
	}
	if len(vectors) != 1 || len(vectors[0]) != BuiltinDimensions {
		t.Fatalf("expected builtin-shaped vector, got %v", vectors)
	}
	if chain.ActiveEmbedder() != config.EmbedderKindBuiltin {
		t.Errorf("expected active embedder to advance to builtin, got %q", chain.ActiveEmbedder())
	}
}

func TestChain_PrefersFirstAvailable(t *testing.T) {
	chain := NewChain(nil,
		[]config.EmbedderKind{config.EmbedderKindOpenAI, config.EmbedderKindBuiltin},
		map[config.EmbedderKind]llmprovider.EmbeddingClient{
			config.EmbedderKindOpenAI: stubEmbedder{},
		},
	)
	if chain.ActiveEmbedder() != config.EmbedderKindOpenAI {
		t.Fatalf("expected openai to be selected first, got %q", chain.ActiveEmbedder())
	}

	vectors, err := chain.Embed(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if vectors[0][0] != 1 {
		t.Fatalf("expected openai stub vector, got %v", vectors[0])
	}
}

func TestEmbedBatch_DropsEmptyVectors(t *testing.T) {
	chain := NewChain(nil, nil, nil) // builtin only
	chunks := []Chunk{{Text: "one"}, {Text: "two"}}

	out, err := EmbedBatch(context.Background(), chain, chunks, 10)
	if err != nil {
		t.Fatalf("embed batch: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected both chunks to survive (builtin never returns empty), got %d", len(out))
	}
	for _, c := range out {
		if len(c.Embedding) != BuiltinDimensions {
			t.Errorf("expected embedding assigned, got %d dims", len(c.Embedding))
		}
	}
}
