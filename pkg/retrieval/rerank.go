package retrieval

// Reranker re-scores and filters a candidate set against a query. Spec
// §4.F specifies re-ranking as a configurable, optional stage; no
// cross-encoder model ships inside a Go binary, so the only concrete
// implementation is a local, cosine-similarity-based approximation. The
// interface exists so a future out-of-process cross-encoder call could be
// substituted without touching the retrieval service.
type Reranker interface {
	Rerank(candidates []Scored, dedupThreshold, relevanceThreshold float64, topK int) []Scored
}

// LocalReranker implements Reranker using the same cosine-similarity
// scores already computed during vector search: dedup against near-
// identical already-kept chunks, then drop below the relevance threshold
// and keep the top-K survivors (spec §4.F steps 1–2).
type LocalReranker struct{}

func (LocalReranker) Rerank(candidates []Scored, dedupThreshold, relevanceThreshold float64, topK int) []Scored {
	deduped := dedup(candidates, dedupThreshold)

	var kept []Scored
	for _, c := range deduped {
		if c.Score < relevanceThreshold {
			continue
		}
		kept = append(kept, c)
		if topK > 0 && len(kept) >= topK {
			break
		}
	}
	return kept
}

// dedup walks candidates in their existing (score-descending) order,
// keeping a chunk only if its embedding isn't within dedupThreshold cosine
// similarity of any chunk already kept.
func dedup(candidates []Scored, dedupThreshold float64) []Scored {
	var kept []Scored
	for _, c := range candidates {
		if isNearDuplicate(c, kept, dedupThreshold) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func isNearDuplicate(candidate Scored, kept []Scored, threshold float64) bool {
	for _, k := range kept {
		if cosineSimilarity(candidate.Chunk.Embedding, k.Chunk.Embedding) >= threshold {
			return true
		}
	}
	return false
}
