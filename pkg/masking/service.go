// Package masking redacts secrets (access tokens, provider API keys) out of
// text before it reaches a log line or a persisted error message. Adapted
// from tarsy's pkg/masking: the same "compile patterns once at startup,
// apply the full set on every call, fail open" shape, simplified from
// tarsy's per-MCP-server pattern-group resolution (and its Kubernetes
// Secret YAML/JSON structural masker, which has no analogue here — this
// pipeline never handles Kubernetes manifests) down to one flat pattern
// list drawn from config.MaskingConfig.
package masking

import (
	"log/slog"
	"regexp"

	"github.com/wikiforge/wikiforge/pkg/config"
)

// compiledPattern holds a pre-compiled regex pattern with its replacement.
type compiledPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Service redacts secrets from text using a fixed, eagerly-compiled set of
// patterns. Created once at startup; safe for concurrent use (read-only
// after construction).
type Service struct {
	enabled  bool
	patterns []compiledPattern
}

// NewService compiles cfg's patterns and returns a ready-to-use Service.
// Invalid patterns are logged and skipped rather than failing startup. A
// nil cfg or cfg.Enabled == false yields a Service whose Mask is a no-op.
func NewService(cfg *config.MaskingConfig) *Service {
	if cfg == nil {
		return &Service{}
	}

	s := &Service{enabled: cfg.Enabled}
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			slog.Error("failed to compile masking pattern, skipping", "pattern", p.Name, "error", err)
			continue
		}
		s.patterns = append(s.patterns, compiledPattern{name: p.Name, regex: re, replacement: p.Replacement})
	}
	return s
}

// Mask applies every compiled pattern to text in order and returns the
// result. Fail-open and nil-safe: a nil Service, a disabled Service, or
// empty input all return text unchanged.
func (s *Service) Mask(text string) string {
	if s == nil || !s.enabled || text == "" {
		return text
	}
	masked := text
	for _, p := range s.patterns {
		masked = p.regex.ReplaceAllString(masked, p.replacement)
	}
	return masked
}

// MaskError redacts secrets from an error's message and wraps the result
// as a plain error, for callers that want to log or persist err.Error()
// without leaking a token it happens to contain (e.g. a provider error
// echoing back an Authorization header, or a repo_url with an embedded PAT).
func (s *Service) MaskError(err error) string {
	if err == nil {
		return ""
	}
	return s.Mask(err.Error())
}
