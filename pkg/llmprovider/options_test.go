package llmprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wikiforge/wikiforge/pkg/config"
)

func TestApplyQuirks_StripsSamplingForReasoningModels(t *testing.T) {
	kwargs := map[string]interface{}{"temperature": 0.7, "top_p": 0.9}
	applyQuirks(kwargs, "o3-mini", config.ProviderQuirks{StripSamplingForReasoningModels: true}, 4096)

	assert.NotContains(t, kwargs, "temperature")
	assert.NotContains(t, kwargs, "top_p")
}

func TestApplyQuirks_LeavesNonReasoningModelsAlone(t *testing.T) {
	kwargs := map[string]interface{}{"temperature": 0.7}
	applyQuirks(kwargs, "gpt-4o", config.ProviderQuirks{StripSamplingForReasoningModels: true}, 4096)

	assert.Contains(t, kwargs, "temperature")
}

func TestApplyQuirks_NoTemperatureWithTopP(t *testing.T) {
	kwargs := map[string]interface{}{"temperature": 0.5, "top_p": 0.9}
	applyQuirks(kwargs, "claude-3-opus", config.ProviderQuirks{NoTemperatureWithTopP: true}, 4096)

	assert.Contains(t, kwargs, "temperature")
	assert.NotContains(t, kwargs, "top_p")
}

func TestApplyQuirks_RequireMaxTokens(t *testing.T) {
	kwargs := map[string]interface{}{}
	applyQuirks(kwargs, "claude-3-opus", config.ProviderQuirks{RequireMaxTokens: true}, 4096)

	assert.Equal(t, 4096, kwargs["max_tokens"])
}

func TestSplitSystemPrompt_TaggedPrompt(t *testing.T) {
	prompt := "<START_OF_SYSTEM_PROMPT>be terse<END_OF_SYSTEM_PROMPT><START_OF_USER_PROMPT>hello<END_OF_USER_PROMPT>"
	system, user := splitSystemPrompt(prompt)
	assert.Equal(t, "be terse", system)
	assert.Equal(t, "hello", user)
}

func TestSplitSystemPrompt_UntaggedPromptPassesThrough(t *testing.T) {
	system, user := splitSystemPrompt("just a plain prompt")
	assert.Empty(t, system)
	assert.Equal(t, "just a plain prompt", user)
}

func TestClassify_ContextLimitMatchesMessageSubstring(t *testing.T) {
	err := assertErr("this request exceeds the maximum context length")
	assert.Equal(t, KindContextLimit, Classify(err, 0))
}

func TestClassify_RateLimitFromStatusCode(t *testing.T) {
	assert.Equal(t, KindRateLimit, Classify(nil, 429))
}

func TestClassify_TerminalFromAuthStatus(t *testing.T) {
	assert.Equal(t, KindTerminalProvider, Classify(nil, 401))
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func assertErr(msg string) error {
	return simpleErr(msg)
}
