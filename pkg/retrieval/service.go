package retrieval

import (
	"context"
	"log/slog"

	"github.com/wikiforge/wikiforge/pkg/config"
	"github.com/wikiforge/wikiforge/pkg/llmprovider"
)

// Retrieve runs the default single-stage vector search and, if enabled,
// the dedup + re-rank pass, falling back to the unmodified vector-search
// results if re-ranking fails for any reason (spec §4.F).
func Retrieve(ctx context.Context, logger *slog.Logger, idx *Index, embedder llmprovider.EmbeddingClient, reranker Reranker, query string, cfg *config.RetrievalConfig) ([]Scored, error) {
	if logger == nil {
		logger = slog.Default()
	}

	results, err := idx.Search(ctx, embedder, query, cfg.TopK)
	if err != nil {
		return nil, err
	}

	if !cfg.RerankEnabled || reranker == nil {
		return results, nil
	}

	reranked := safeRerank(logger, reranker, results, cfg)
	return reranked, nil
}

// safeRerank recovers from a panicking reranker implementation and always
// falls back to the original vector-search ordering, matching spec §4.F's
// "if re-ranking fails, fall back to the initial vector results unchanged".
func safeRerank(logger *slog.Logger, reranker Reranker, results []Scored, cfg *config.RetrievalConfig) (out []Scored) {
	out = results
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("retrieval: reranker panicked, falling back to vector results", "panic", r)
			out = results
		}
	}()
	return reranker.Rerank(results, cfg.DedupSimilarityThreshold, cfg.RerankRelevanceThreshold, cfg.RerankTopK)
}
