package retrieval

import (
	"testing"

	"github.com/wikiforge/wikiforge/pkg/chunking"
)

func TestLocalReranker_DedupsNearIdenticalChunks(t *testing.T) {
	candidates := []Scored{
		{Chunk: chunking.Chunk{FilePath: "a.go", Embedding: []float32{1, 0}}, Score: 0.9},
		{Chunk: chunking.Chunk{FilePath: "a-copy.go", Embedding: []float32{0.999, 0.001}}, Score: 0.89},
		{Chunk: chunking.Chunk{FilePath: "b.go", Embedding: []float32{0, 1}}, Score: 0.5},
	}

	got := LocalReranker{}.Rerank(candidates, 0.95, 0.0, 10)
	if len(got) != 2 {
		t.Fatalf("expected near-duplicate dropped, got %d results: %+v", len(got), got)
	}
	if got[0].Chunk.FilePath != "a.go" || got[1].Chunk.FilePath != "b.go" {
		t.Errorf("unexpected survivors: %+v", got)
	}
}

func TestLocalReranker_DropsBelowRelevanceThreshold(t *testing.T) {
	candidates := []Scored{
		{Chunk: chunking.Chunk{FilePath: "a.go", Embedding: []float32{1, 0}}, Score: 0.5},
		{Chunk: chunking.Chunk{FilePath: "b.go", Embedding: []float32{0, 1}}, Score: 0.1},
	}

	got := LocalReranker{}.Rerank(candidates, 0.95, 0.3, 10)
	if len(got) != 1 || got[0].Chunk.FilePath != "a.go" {
		t.Fatalf("expected only a.go to survive relevance threshold, got %+v", got)
	}
}

func TestLocalReranker_RespectsTopK(t *testing.T) {
	candidates := []Scored{
		{Chunk: chunking.Chunk{FilePath: "a.go", Embedding: []float32{1, 0, 0}}, Score: 0.9},
		{Chunk: chunking.Chunk{FilePath: "b.go", Embedding: []float32{0, 1, 0}}, Score: 0.8},
		{Chunk: chunking.Chunk{FilePath: "c.go", Embedding: []float32{0, 0, 1}}, Score: 0.7},
	}

	got := LocalReranker{}.Rerank(candidates, 0.95, 0.0, 2)
	if len(got) != 2 {
		t.Fatalf("expected top-2 cap, got %d", len(got))
	}
}
