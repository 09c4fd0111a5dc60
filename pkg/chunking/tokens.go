package chunking

import "strings"

// EstimateTokens exposes the deterministic token estimator for other
// pipeline stages (the Page Generator's prompt/response token accounting
// in spec §4.H uses the same "deterministic tokenizer, or length/4
// fallback" heuristic described for chunking in §4.E).
func EstimateTokens(text string) int { return estimateTokens(text) }

// estimateTokens is the deterministic, network-free token approximation
// used both by the chunking stage (to decide when a block needs
// re-splitting) and by the chunking stats totals. It mirrors the common
// "roughly 4 characters per token" heuristic real tokenizer-less pipelines
// fall back to, refined by a whitespace word count floor so that sparse,
// long-identifier code doesn't under-count.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	byChars := (len(text) + 3) / 4
	words := len(strings.Fields(text))
	if words > byChars {
		return words
	}
	return byChars
}
