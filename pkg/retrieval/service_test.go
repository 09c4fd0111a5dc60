package retrieval

import (
	"context"
	"testing"

	"github.com/wikiforge/wikiforge/pkg/chunking"
	"github.com/wikiforge/wikiforge/pkg/config"
)

type panicReranker struct{}

func (panicReranker) Rerank([]Scored, float64, float64, int) []Scored {
	panic("boom")
}

func TestRetrieve_FallsBackToVectorResultsWhenRerankPanics(t *testing.T) {
	idx := NewIndex([]chunking.Chunk{
		{FilePath: "a.go", Embedding: []float32{1, 0}},
		{FilePath: "b.go", Embedding: []float32{0, 1}},
	})
	cfg := config.DefaultRetrievalConfig()
	cfg.RerankEnabled = true

	results, err := Retrieve(context.Background(), nil, idx, fixedEmbedder{vector: []float32{1, 0}}, panicReranker{}, "q", cfg)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected fallback to unranked vector results, got %d", len(results))
	}
}

func TestRetrieve_SkipsRerankWhenDisabled(t *testing.T) {
	idx := NewIndex([]chunking.Chunk{{FilePath: "a.go", Embedding: []float32{1, 0}}})
	cfg := config.DefaultRetrievalConfig()
	cfg.RerankEnabled = false

	results, err := Retrieve(context.Background(), nil, idx, fixedEmbedder{vector: []float32{1, 0}}, LocalReranker{}, "q", cfg)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected unreranked single result, got %d", len(results))
	}
}
