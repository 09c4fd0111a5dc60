package config

// Defaults contains system-wide default values applied when a job request
// doesn't specify them explicitly.
type Defaults struct {
	// Provider is the LLM provider name used when a job request omits one.
	Provider string `yaml:"provider,omitempty"`

	// Language is the default wiki language.
	Language string `yaml:"language,omitempty"`

	// IsComprehensive selects the comprehensive vs concise structure template
	// when a job request doesn't specify.
	IsComprehensive bool `yaml:"is_comprehensive,omitempty"`

	// MaxPageRetries is how many times a page may be retried before it is
	// promoted to permanent_failed (§3 invariant: retry_count >= MaxPageRetries).
	MaxPageRetries int `yaml:"max_page_retries,omitempty" validate:"omitempty,min=1"`
}

// DefaultDefaults returns the built-in system defaults.
func DefaultDefaults() *Defaults {
	return &Defaults{
		Provider:        "openai",
		Language:        "en",
		IsComprehensive: true,
		MaxPageRetries:  3,
	}
}
