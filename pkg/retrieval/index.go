// Package retrieval implements the Retrieval stage (spec §4.F): a
// job-scoped vector index over embedded chunks, single-stage cosine
// similarity search, and an optional dedup + re-rank pass.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/wikiforge/wikiforge/pkg/chunking"
	"github.com/wikiforge/wikiforge/pkg/llmprovider"
)

// Scored pairs a chunk with its similarity score against the last query.
type Scored struct {
	Chunk chunking.Chunk
	Score float64
}

// Index holds the embedded chunks produced for a single job's phase-0
// chunking run, for the lifetime of that job's phase-2 processing (spec
// §3's ownership note).
type Index struct {
	chunks []chunking.Chunk
}

// NewIndex builds an index from already-embedded chunks; chunks lacking an
// embedding are rejected since the embedding invariant (spec §8) requires
// every indexed chunk to carry a non-empty vector.
func NewIndex(chunks []chunking.Chunk) *Index {
	out := make([]chunking.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) > 0 {
			out = append(out, c)
		}
	}
	return &Index{chunks: out}
}

// Len returns the number of chunks held in the index.
func (idx *Index) Len() int { return len(idx.chunks) }

// Search embeds query and returns the topK chunks ranked by cosine
// similarity — the default single-stage vector search (spec §4.F).
func (idx *Index) Search(ctx context.Context, embedder llmprovider.EmbeddingClient, query string, topK int) ([]Scored, error) {
	if len(idx.chunks) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 20
	}

	vectors, err := embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("retrieval: query embedding was empty")
	}
	queryVec := vectors[0]

	scored := make([]Scored, 0, len(idx.chunks))
	for _, c := range idx.chunks {
		scored = append(scored, Scored{Chunk: c, Score: cosineSimilarity(queryVec, c.Embedding)})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}
