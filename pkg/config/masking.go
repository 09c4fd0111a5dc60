package config

// MaskingPattern is one named regex-replacement rule applied to log lines
// and stored job error messages before they leave the process.
type MaskingPattern struct {
	Name        string `yaml:"name"`
	Regex       string `yaml:"regex"`
	Replacement string `yaml:"replacement"`
}

// MaskingConfig groups the masking patterns applied to outbound log/error
// text, e.g. access tokens embedded in repo_url or provider error bodies.
type MaskingConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Patterns []MaskingPattern `yaml:"patterns,omitempty"`
}

// DefaultMaskingConfig returns the built-in secret-masking patterns: GitHub
// tokens, generic bearer tokens, and API-key-shaped query parameters.
func DefaultMaskingConfig() *MaskingConfig {
	return &MaskingConfig{
		Enabled: true,
		Patterns: []MaskingPattern{
			{Name: "github_pat", Regex: `gh[pousr]_[A-Za-z0-9]{20,}`, Replacement: "***MASKED-TOKEN***"},
			{Name: "bearer_token", Regex: `(?i)bearer\s+[A-Za-z0-9._-]{10,}`, Replacement: "Bearer ***MASKED-TOKEN***"},
			{Name: "api_key_query_param", Regex: `(?i)([?&](?:api[_-]?key|access[_-]?token|key)=)[^&\s]+`, Replacement: "${1}***MASKED***"},
		},
	}
}
