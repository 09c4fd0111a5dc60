package chunking

import (
	"context"
	"log/slog"

	"github.com/wikiforge/wikiforge/pkg/config"
)

// Chunk all files under root, honoring cfg's chunking settings and any
// per-job filter overlay, returning the resulting chunks and the
// chunking-stage stats committed via the Token Tracker at the end of
// phase 0 (spec §4.E).
func ChunkRepo(ctx context.Context, logger *slog.Logger, root string, cfg *config.ChunkingConfig, jobFilters Filters) ([]Chunk, Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	filters := Filters{
		ExcludedDirs:  cfg.ExcludedDirs,
		ExcludedFiles: cfg.ExcludedFiles,
		IncludedDirs:  cfg.IncludedDirs,
		IncludedFiles: cfg.IncludedFiles,
	}.Merge(jobFilters)

	files, err := Walk(root, filters)
	if err != nil {
		return nil, Stats{}, err
	}

	var chunks []Chunk
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, Stats{}, err
		}

		fileChunks, err := chunkFile(ctx, f, cfg)
		if err != nil {
			logger.Warn("chunking: skipping file", "path", f.Path, "error", err)
			continue
		}
		chunks = append(chunks, fileChunks...)
	}

	stats := Stats{TotalChunks: len(chunks)}
	for _, c := range chunks {
		stats.TotalTokens += c.TokenCount
	}
	return chunks, stats, nil
}

func chunkFile(ctx context.Context, f WalkedFile, cfg *config.ChunkingConfig) ([]Chunk, error) {
	content, err := ReadCandidate(f)
	if err != nil {
		return nil, err
	}
	if isProbablyBinary(content) {
		return nil, nil
	}

	maxFileSize := cfg.MaxFileSizeBytes
	if maxFileSize <= 0 {
		maxFileSize = maxSyntaxFileSize
	}

	lang := detectLanguage(f.Path, content)
	useSyntax := cfg.UseSyntaxAwareChunking && lang != LanguageUnknown && f.Size < maxFileSize

	var raw []Chunk
	if useSyntax {
		raw, err = ParseSyntax(ctx, f.Path, content, lang, maxNestingDepth(cfg))
		if err != nil {
			raw = nil // fall through to the generic splitter below
		}
	}
	if raw == nil {
		raw = splitGeneric(f.Path, string(content), lang, maxEmbeddingTokens(cfg))
	}

	maxTokens := maxEmbeddingTokens(cfg)
	var out []Chunk
	for _, c := range raw {
		out = append(out, resplitIfOversized(c, maxTokens)...)
	}
	return out, nil
}

func maxNestingDepth(cfg *config.ChunkingConfig) int {
	if cfg.MaxNestingDepth <= 0 {
		return 2
	}
	return cfg.MaxNestingDepth
}

func maxEmbeddingTokens(cfg *config.ChunkingConfig) int {
	if cfg.MaxEmbeddingTokens <= 0 {
		return 8000
	}
	return cfg.MaxEmbeddingTokens
}
