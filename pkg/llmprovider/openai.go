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

// openAIStyleClient implements the OpenAI-compatible chat completions wire
// shape, shared by openai, deepseek, openrouter, and zhipu-in-openai-mode.
type openAIStyleClient struct {
	cfg        config.LLMProviderConfig
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func newOpenAIStyleClient(cfg config.LLMProviderConfig) *openAIStyleClient {
	return &openAIStyleClient{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		baseURL:    defaultBaseURL(cfg, "https://api.openai.com/v1"),
		apiKey:     os.Getenv(cfg.APIKeyEnv),
	}
}

func defaultBaseURL(cfg config.LLMProviderConfig, fallback string) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	return fallback
}

func (c *openAIStyleClient) ConvertInputs(prompt string, kwargs map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{
		"model":    c.cfg.Model,
		"messages": []map[string]string{{"role": "user", "content": prompt}},
		"stream":   true,
	}
	for k, v := range kwargs {
		out[k] = v
	}
	applyQuirks(out, c.cfg.Model, c.cfg.Quirks, c.cfg.MaxOutputTokens)
	return out
}

func (c *openAIStyleClient) StreamCompletion(ctx context.Context, apiKwargs map[string]interface{}) (<-chan StreamDelta, <-chan error) {
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

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			errs <- fmt.Errorf("build request: %w", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

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

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			payload := strings.TrimPrefix(line, "data: ")
			if payload == "[DONE]" {
				deltas <- StreamDelta{Done: true}
				return
			}

			var frame openAIStreamFrame
			if err := json.Unmarshal([]byte(payload), &frame); err != nil {
				continue // heartbeat / malformed frame, dropped per spec §4.C
			}
			for _, choice := range frame.Choices {
				if choice.Delta.Content != "" {
					select {
					case deltas <- StreamDelta{Text: choice.Delta.Content}:
					case <-ctx.Done():
						errs <- ctx.Err()
						return
					}
				}
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- &ProviderError{Kind: KindTransientNetwork, Err: err}
		}
	}()

	return deltas, errs
}

type openAIStreamFrame struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *openAIStyleClient) TrackUsage(lastResponse map[string]interface{}) Usage {
	usage, _ := lastResponse["usage"].(map[string]interface{})
	var u Usage
	if v, ok := usage["prompt_tokens"].(float64); ok {
		u.PromptTokens = int(v)
	}
	if v, ok := usage["completion_tokens"].(float64); ok {
		u.CompletionTokens = int(v)
	}
	return u
}

func classifyHTTPError(resp *http.Response) error {
	retryAfter := 0
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		fmt.Sscanf(ra, "%d", &retryAfter)
	}
	if retryAfter == 0 && resp.StatusCode == 429 {
		retryAfter = 60
	}
	kind := Classify(nil, resp.StatusCode)
	return &ProviderError{
		Kind:       kind,
		RetryAfter: retryAfter,
		Err:        fmt.Errorf("provider returned status %d", resp.StatusCode),
	}
}
