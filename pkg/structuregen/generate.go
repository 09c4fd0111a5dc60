package structuregen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wikiforge/wikiforge/pkg/llmprovider"
)

const maxAttempts = 3

// Generate runs the prompt-build → stream → sanitize → parse →
// self-correct loop (spec §4.G), returning the canonical Structure or
// ErrStructureGenerationFailed once every attempt including the
// deterministic rebuild has failed.
func Generate(ctx context.Context, logger *slog.Logger, client llmprovider.CompletionClient, req PromptRequest, modelKwargs map[string]interface{}) (*Structure, error) {
	if logger == nil {
		logger = slog.Default()
	}

	prompt := BuildPrompt(req)
	var lastRaw string
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := streamOnce(ctx, client, prompt, modelKwargs)
		if err != nil {
			return nil, fmt.Errorf("structuregen: completion call failed: %w", err)
		}
		lastRaw = raw

		sanitized := Sanitize(raw)
		doc, parseErr := ParseXML(sanitized)
		if parseErr == nil {
			structure := doc.toStructure()
			if valErr := validate(structure); valErr == nil {
				return structure, nil
			} else {
				parseErr = valErr
			}
		}

		lastErr = parseErr
		logger.Warn("structuregen: attempt failed to produce valid structure", "attempt", attempt, "error", parseErr)

		if attempt < maxAttempts {
			prompt = prompt + fmt.Sprintf("\n\nPrevious attempt failed with: %v. Return ONLY a single well-formed <wiki_structure> XML document.", parseErr)
		}
	}

	structure, rebuildErr := rebuild(lastRaw)
	if rebuildErr != nil {
		return nil, fmt.Errorf("%w: %v (last parse error: %v)", ErrStructureGenerationFailed, rebuildErr, lastErr)
	}
	logger.Warn("structuregen: recovered via deterministic rebuild after exhausting parse attempts")
	return structure, nil
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
				errs = nil // stop selecting a closed channel; wait for deltas to close instead
				continue
			}
			if err != nil {
				return out, err
			}
		}
	}
}
