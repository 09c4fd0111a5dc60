package llmprovider

import (
	"strings"

	"github.com/wikiforge/wikiforge/pkg/config"
)

// applyQuirks mutates kwargs in place per the provider's declared quirks
// table (spec §4.C). model is the resolved model name, used to detect
// reasoning-tier models that reject sampling parameters.
func applyQuirks(kwargs map[string]interface{}, model string, quirks config.ProviderQuirks, maxOutputTokens int) {
	if quirks.StripSamplingForReasoningModels && isReasoningModel(model) {
		delete(kwargs, "temperature")
		delete(kwargs, "top_p")
		delete(kwargs, "frequency_penalty")
		delete(kwargs, "presence_penalty")
	}

	if quirks.NoTemperatureWithTopP {
		if _, hasTemp := kwargs["temperature"]; hasTemp {
			if _, hasTopP := kwargs["top_p"]; hasTopP {
				delete(kwargs, "top_p")
			}
		}
	}

	if quirks.RequireMaxTokens {
		if _, ok := kwargs["max_tokens"]; !ok {
			kwargs["max_tokens"] = maxOutputTokens
		}
	}

	if quirks.DisableStreaming {
		kwargs["stream"] = false
	}

	if _, hasStream := kwargs["stream"]; hasStream && quirksRemovesStreamField(quirks) {
		delete(kwargs, "stream")
	}
}

// quirksRemovesStreamField models "stream_removal" from spec §4.C: some
// Anthropic-style clients treat streaming as a method choice rather than a
// request field.
func quirksRemovesStreamField(quirks config.ProviderQuirks) bool {
	return quirks.SplitSystemPrompt
}

func isReasoningModel(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range []string{"o1", "o3", "o4"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return strings.Contains(lower, "reasoning")
}

// systemPromptMarkers delimit a prompt that was pre-tagged by the caller to
// carry a distinct system section (spec §4.C system_prompt_split).
const (
	startSystemMarker = "<START_OF_SYSTEM_PROMPT>"
	endSystemMarker   = "<END_OF_SYSTEM_PROMPT>"
	startUserMarker   = "<START_OF_USER_PROMPT>"
	endUserMarker     = "<END_OF_USER_PROMPT>"
)

// splitSystemPrompt extracts (system, user) from a tagged prompt. If the
// prompt isn't tagged, system is empty and user is the prompt verbatim.
func splitSystemPrompt(prompt string) (system, user string) {
	sysStart := strings.Index(prompt, startSystemMarker)
	sysEnd := strings.Index(prompt, endSystemMarker)
	usrStart := strings.Index(prompt, startUserMarker)
	usrEnd := strings.Index(prompt, endUserMarker)

	if sysStart < 0 || sysEnd < 0 || usrStart < 0 || usrEnd < 0 || sysEnd < sysStart || usrEnd < usrStart {
		return "", prompt
	}

	system = strings.TrimSpace(prompt[sysStart+len(startSystemMarker) : sysEnd])
	user = strings.TrimSpace(prompt[usrStart+len(startUserMarker) : usrEnd])
	return system, user
}
