package config

// ProviderKind selects which vendor a provider configuration talks to.
// Some kinds share a StreamStyle but need different base URLs or headers.
type ProviderKind string

const (
	ProviderKindOpenAI    ProviderKind = "openai"
	ProviderKindAnthropic ProviderKind = "anthropic"
	ProviderKindGoogle    ProviderKind = "google"
	ProviderKindOllama    ProviderKind = "ollama"
	ProviderKindDeepSeek  ProviderKind = "deepseek"  // openai-style wire format, vendor base URL
	ProviderKindZhipu     ProviderKind = "zhipu"     // openai or anthropic-style, selected by StreamStyle
	ProviderKindOpenRouter ProviderKind = "openrouter"
)

// IsValid reports whether the provider kind is recognized.
func (k ProviderKind) IsValid() bool {
	switch k {
	case ProviderKindOpenAI, ProviderKindAnthropic, ProviderKindGoogle, ProviderKindOllama,
		ProviderKindDeepSeek, ProviderKindZhipu, ProviderKindOpenRouter:
		return true
	default:
		return false
	}
}

// StreamStyle determines how a provider's streaming response body is framed
// and decoded. Several vendors reuse an existing style under a different
// base URL (DeepSeek and Zhipu's OpenAI-compatible mode both use
// StreamStyleOpenAI; Zhipu's native mode uses StreamStyleAnthropicEvents).
type StreamStyle string

const (
	StreamStyleOpenAI          StreamStyle = "openai"           // "data: {json}\n\n" SSE frames
	StreamStyleOllama          StreamStyle = "ollama"            // newline-delimited JSON objects
	StreamStyleAnthropic       StreamStyle = "anthropic"         // plain JSON response, no streaming
	StreamStyleAnthropicEvents StreamStyle = "anthropic_events"  // typed SSE events (message_start, content_block_delta, ...)
	StreamStyleGoogle          StreamStyle = "google"            // chunked JSON array stream
)

// IsValid reports whether the stream style is recognized.
func (s StreamStyle) IsValid() bool {
	switch s {
	case StreamStyleOpenAI, StreamStyleOllama, StreamStyleAnthropic, StreamStyleAnthropicEvents, StreamStyleGoogle:
		return true
	default:
		return false
	}
}

// EmbedderKind selects which embedding backend produces vectors for a chunk.
type EmbedderKind string

const (
	EmbedderKindBuiltin    EmbedderKind = "builtin" // deterministic hashing embedder, no network
	EmbedderKindOpenAI     EmbedderKind = "openai"
	EmbedderKindGoogle     EmbedderKind = "google"
	EmbedderKindOpenRouter EmbedderKind = "openrouter"
	EmbedderKindOllama     EmbedderKind = "ollama"
)

// IsValid reports whether the embedder kind is recognized.
func (k EmbedderKind) IsValid() bool {
	switch k {
	case EmbedderKindBuiltin, EmbedderKindOpenAI, EmbedderKindGoogle, EmbedderKindOpenRouter, EmbedderKindOllama:
		return true
	default:
		return false
	}
}
