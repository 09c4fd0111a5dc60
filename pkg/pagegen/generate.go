package pagegen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wikiforge/wikiforge/pkg/chunking"
	"github.com/wikiforge/wikiforge/pkg/config"
	"github.com/wikiforge/wikiforge/pkg/jobs"
	"github.com/wikiforge/wikiforge/pkg/llmprovider"
	"github.com/wikiforge/wikiforge/pkg/retrieval"
)

// pageTimeout bounds a single page's generation call (spec §4.H).
const pageTimeout = 600 * time.Second

// Request carries everything Generate needs to produce one page's content.
type Request struct {
	Page         jobs.Page
	Language     string
	Index        *retrieval.Index
	Embedder     llmprovider.EmbeddingClient
	Reranker     retrieval.Reranker
	RetrievalCfg *config.RetrievalConfig
}

// Result is the outcome of one page-generation attempt.
type Result struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	GenerationTimeMs int64
}

// Generate retrieves context, builds the prompt, streams a completion within
// a per-page timeout, validates/fixes any Mermaid diagrams, and returns the
// finished page content with its token accounting (spec §4.H).
func Generate(ctx context.Context, logger *slog.Logger, client llmprovider.CompletionClient, req Request, modelKwargs map[string]interface{}) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(ctx, pageTimeout)
	defer cancel()

	started := time.Now()

	query := req.Page.Title
	if len(req.Page.FilePaths) == 1 {
		query = req.Page.FilePaths[0]
	}

	var chunks []chunking.Chunk
	if req.Index != nil {
		scored, err := retrieval.Retrieve(ctx, logger, req.Index, req.Embedder, req.Reranker, query, req.RetrievalCfg)
		if err != nil {
			logger.Warn("pagegen: retrieval failed, continuing without retrieved context", "page_id", req.Page.PageID, "error", err)
		} else {
			for _, s := range scored {
				chunks = append(chunks, s.Chunk)
			}
		}
	}

	prompt := BuildPrompt(PromptRequest{
		Title:       req.Page.Title,
		Description: req.Page.Description,
		FilePaths:   req.Page.FilePaths,
		Language:    req.Language,
		Chunks:      chunks,
	})

	content, err := streamOnce(ctx, client, prompt, modelKwargs)
	if err != nil {
		return nil, fmt.Errorf("pagegen: completion call failed: %w", err)
	}

	content = validateAndFixDiagrams(ctx, logger, client, content, modelKwargs)

	return &Result{
		Content:          content,
		PromptTokens:     chunking.EstimateTokens(prompt),
		CompletionTokens: chunking.EstimateTokens(content),
		GenerationTimeMs: time.Since(started).Milliseconds(),
	}, nil
}

// validateAndFixDiagrams validates every Mermaid block in content, attempts
// one LLM fix round-trip for each invalid block, and replaces blocks that
// are still invalid after the fix with a one-line notice (spec §4.H).
func validateAndFixDiagrams(ctx context.Context, logger *slog.Logger, client llmprovider.CompletionClient, content string, modelKwargs map[string]interface{}) string {
	blocks := ExtractMermaidBlocks(content)
	if len(blocks) == 0 {
		return content
	}

	// Walk back to front so earlier offsets stay valid as we splice in
	// replacements of different length.
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		if ValidateDiagram(b.Diagram) == nil {
			continue
		}

		fixed, err := fixDiagram(ctx, client, b.Diagram, modelKwargs)
		if err == nil && ValidateDiagram(fixed) == nil {
			content = content[:b.Start] + "```mermaid\n" + fixed + "\n```" + content[b.End:]
			continue
		}

		logger.Warn("pagegen: mermaid diagram invalid after fix attempt, replacing with notice")
		content = content[:b.Start] + "Diagram omitted: could not be rendered." + content[b.End:]
	}
	return content
}

// fixDiagram asks the model to repair a single invalid Mermaid diagram.
func fixDiagram(ctx context.Context, client llmprovider.CompletionClient, diagram string, modelKwargs map[string]interface{}) (string, error) {
	prompt := "The following Mermaid diagram is invalid. Return ONLY a corrected Mermaid diagram, no fences, no prose:\n\n" + diagram
	return streamOnce(ctx, client, prompt, modelKwargs)
}

func streamOnce(ctx context.Context, client llmprovider.CompletionClient, prompt string, modelKwargs map[string]interface{}) (string, error) {
	apiKwargs := client.ConvertInputs(prompt, modelKwargs)
	deltas, errs := client.StreamCompletion(ctx, apiKwargs)

	var out string
	for {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case d, ok := <-deltas:
			if !ok {
				return out, nil
			}
			out += d.Text
			if d.Done {
				return out, nil
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return out, err
			}
		}
	}
}
