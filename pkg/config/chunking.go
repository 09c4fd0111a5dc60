package config

// ChunkingConfig controls the embedding/chunking pipeline (§4.E).
type ChunkingConfig struct {
	// UseSyntaxAwareChunking enables the tree-sitter based splitter. When
	// false, or when a file's language has no grammar, the generic
	// word-based splitter is used (env: USE_SYNTAX_AWARE_CHUNKING).
	UseSyntaxAwareChunking bool `yaml:"use_syntax_aware_chunking"`

	// MaxFileSizeBytes is the ceiling above which a file is never
	// syntax-parsed and always falls back to the generic splitter.
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes"`

	// MaxNestingDepth bounds how deep the syntax splitter descends into
	// nested containers before treating deeper nodes as leaves.
	MaxNestingDepth int `yaml:"max_nesting_depth"`

	// MaxEmbeddingTokens is the token ceiling a single chunk must respect
	// before being recursively re-split (env: MAX_EMBEDDING_TOKENS; 8000 or
	// 16384 depending on the embedding model in use).
	MaxEmbeddingTokens int `yaml:"max_embedding_tokens"`

	// BatchSize is how many chunks are submitted per embedding call.
	BatchSize int `yaml:"batch_size"`

	// EmbedderChain is the ordered fallback list tried at startup and on
	// runtime failure. Defaults to builtin, openai, google, openrouter, ollama.
	EmbedderChain []EmbedderKind `yaml:"embedder_chain"`

	// ExcludedDirs / ExcludedFiles / IncludedDirs / IncludedFiles are glob
	// filters applied during the repo walk, layered under any per-job filters.
	ExcludedDirs   []string `yaml:"excluded_dirs,omitempty"`
	ExcludedFiles  []string `yaml:"excluded_files,omitempty"`
	IncludedDirs   []string `yaml:"included_dirs,omitempty"`
	IncludedFiles  []string `yaml:"included_files,omitempty"`
}

// DefaultChunkingConfig returns the built-in chunking defaults.
func DefaultChunkingConfig() *ChunkingConfig {
	return &ChunkingConfig{
		UseSyntaxAwareChunking: true,
		MaxFileSizeBytes:       500 * 1024,
		MaxNestingDepth:        2,
		MaxEmbeddingTokens:     8000,
		BatchSize:              32,
		EmbedderChain: []EmbedderKind{
			EmbedderKindBuiltin,
			EmbedderKindOpenAI,
			EmbedderKindGoogle,
			EmbedderKindOpenRouter,
			EmbedderKindOllama,
		},
		ExcludedDirs: []string{
			".git", "node_modules", "vendor", "dist", "build", "__pycache__", ".venv",
		},
	}
}
