package config

// RetrievalConfig controls the RAG retrieval stage (§4.F).
type RetrievalConfig struct {
	// TopK is how many chunks the vector search returns before re-ranking.
	TopK int `yaml:"top_k"`

	// RerankEnabled turns on the dedup + cross-encoder re-rank stage.
	RerankEnabled bool `yaml:"rerank_enabled"`

	// DedupSimilarityThreshold drops a candidate if its cosine similarity to
	// an already-kept chunk meets or exceeds this value.
	DedupSimilarityThreshold float64 `yaml:"dedup_similarity_threshold"`

	// RerankRelevanceThreshold drops chunks scoring below this after re-rank.
	// Open Question in the source spec: this is a heuristic, left configurable.
	RerankRelevanceThreshold float64 `yaml:"rerank_relevance_threshold"`

	// RerankTopK is how many chunks survive the re-rank stage.
	RerankTopK int `yaml:"rerank_top_k"`
}

// DefaultRetrievalConfig returns the built-in retrieval defaults.
func DefaultRetrievalConfig() *RetrievalConfig {
	return &RetrievalConfig{
		TopK:                     20,
		RerankEnabled:            true,
		DedupSimilarityThreshold: 0.95,
		RerankRelevanceThreshold: 0.3,
		RerankTopK:               10,
	}
}
