// Package chunking implements the Embedding + Chunking Pipeline (spec
// §4.E): a repo walk over include/exclude filters, a syntax-aware splitter
// for recognized grammars with a generic word-based fallback, and batched
// embedding against a fallback chain of embedding backends.
package chunking

// Language is a recognized source language for the syntax-aware splitter.
type Language string

const (
	LanguageCSharp     Language = "csharp"
	LanguageTypeScript Language = "typescript"
	LanguageTSX        Language = "tsx"
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageUnknown    Language = ""
)

// BlockType names the kind of semantic unit a chunk was carved from.
type BlockType string

const (
	BlockTypeNamespace BlockType = "namespace"
	BlockTypeClass     BlockType = "class"
	BlockTypeStruct    BlockType = "struct"
	BlockTypeInterface BlockType = "interface"
	BlockTypeEnum      BlockType = "enum"
	BlockTypeRecord    BlockType = "record"
	BlockTypeFunction  BlockType = "function"
	BlockTypeType      BlockType = "type"
	BlockTypeExport    BlockType = "export"
	BlockTypeGeneric   BlockType = "generic" // fallback/word-based chunk
)

// Chunk is the transient unit of embedding and retrieval (spec §3). It is
// never persisted in the core relational tables; it lives for the duration
// of phase-0/phase-2 processing of a single job.
type Chunk struct {
	Text       string
	FilePath   string
	SymbolName string
	Signature  string
	ParentSymbol string
	Language   Language
	BlockType  BlockType
	StartLine  int
	EndLine    int
	TokenCount int
	Embedding  []float32
}

// Stats is the chunking-stage summary committed via the Token Tracker at
// the end of phase 0 (spec §4.E).
type Stats struct {
	TotalChunks int
	TotalTokens int
}
