package retrieval

import (
	"context"
	"testing"

	"github.com/wikiforge/wikiforge/pkg/chunking"
)

func TestIndex_SearchRanksByCosineSimilarity(t *testing.T) {
	chunks := []chunking.Chunk{
		{FilePath: "a.go", Embedding: []float32{1, 0, 0}},
		{FilePath: "b.go", Embedding: []float32{0, 1, 0}},
		{FilePath: "c.go", Embedding: []float32{0.9, 0.1, 0}},
	}
	idx := NewIndex(chunks)
	if idx.Len() != 3 {
		t.Fatalf("expected 3 chunks in index, got %d", idx.Len())
	}

	embedder := fixedEmbedder{vector: []float32{1, 0, 0}}
	results, err := idx.Search(context.Background(), embedder, "query", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected top-2 results, got %d", len(results))
	}
	if results[0].Chunk.FilePath != "a.go" {
		t.Errorf("expected a.go to rank first, got %q", results[0].Chunk.FilePath)
	}
	if results[1].Chunk.FilePath != "c.go" {
		t.Errorf("expected c.go to rank second, got %q", results[1].Chunk.FilePath)
	}
}

func TestNewIndex_RejectsUnembeddedChunks(t *testing.T) {
	idx := NewIndex([]chunking.Chunk{{FilePath: "no-vector.go"}})
	if idx.Len() != 0 {
		t.Fatalf("expected chunk without embedding to be rejected, got len %d", idx.Len())
	}
}

type fixedEmbedder struct {
	vector []float32
}

func (f fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}
