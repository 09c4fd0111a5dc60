package llmprovider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/wikiforge/wikiforge/pkg/config"
)

// anthropicStyleClient implements the Anthropic messages API wire shape:
// a dedicated system field, typed SSE content-block-delta events.
type anthropicStyleClient struct {
	cfg        config.LLMProviderConfig
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func newAnthropicStyleClient(cfg config.LLMProviderConfig) *anthropicStyleClient {
	return &anthropicStyleClient{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		baseURL:    defaultBaseURL(cfg, "https://api.anthropic.com/v1"),
		apiKey:     os.Getenv(cfg.APIKeyEnv),
	}
}

func (c *anthropicStyleClient) ConvertInputs(prompt string, kwargs map[string]interface{}) map[string]interface{} {
	system, user := splitSystemPrompt(prompt)

	out := map[string]interface{}{
		"model":    c.cfg.Model,
		"messages": []map[string]string{{"role": "user", "content": user}},
		"stream":   true,
	}
	if system != "" {
		out["system"] = system
	}
	for k, v := range kwargs {
		out[k] = v
	}
	applyQuirks(out, c.cfg.Model, c.cfg.Quirks, c.cfg.MaxOutputTokens)
	return out
}

func (c *anthropicStyleClient) StreamCompletion(ctx context.Context, apiKwargs map[string]interface{}) (<-chan StreamDelta, <-chan error) {
	deltas := make(chan StreamDelta, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(deltas)
		defer close(errs)

		body, err := json.Marshal(apiKwargs)
		if err != nil {
			errs <- fmt.Errorf("marshal request: %w", err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
		if err != nil {
			errs <- fmt.Errorf("build request: %w", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			errs <- &ProviderError{Kind: KindTransientNetwork, Err: err}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			errs <- classifyHTTPError(resp)
			return
		}

		var event string
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				if event != "content_block_delta" {
					continue // message_start/ping/message_stop frames dropped
				}
				payload := strings.TrimPrefix(line, "data: ")
				var frame anthropicDeltaFrame
				if err := json.Unmarshal([]byte(payload), &frame); err != nil {
					continue
				}
				if frame.Delta.Text != "" {
					select {
					case deltas <- StreamDelta{Text: frame.Delta.Text}:
					case <-ctx.Done():
						errs <- ctx.Err()
						return
					}
				}
			case line == "":
				event = ""
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- &ProviderError{Kind: KindTransientNetwork, Err: err}
			return
		}
		deltas <- StreamDelta{Done: true}
	}()

	return deltas, errs
}

type anthropicDeltaFrame struct {
	Delta struct {
		Text string `json:"text"`
	} `json:"delta"`
}

func (c *anthropicStyleClient) TrackUsage(lastResponse map[string]interface{}) Usage {
	usage, _ := lastResponse["usage"].(map[string]interface{})
	var u Usage
	if v, ok := usage["input_tokens"].(float64); ok {
		u.PromptTokens = int(v)
	}
	if v, ok := usage["output_tokens"].(float64); ok {
		u.CompletionTokens = int(v)
	}
	return u
}
