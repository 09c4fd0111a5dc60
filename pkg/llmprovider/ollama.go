package llmprovider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wikiforge/wikiforge/pkg/config"
)

// ollamaStyleClient implements Ollama's streaming API: newline-delimited
// JSON objects, one per generated token, with a final frame carrying
// eval_count/prompt_eval_count in place of a usage block.
type ollamaStyleClient struct {
	cfg        config.LLMProviderConfig
	httpClient *http.Client
	baseURL    string
}

func newOllamaStyleClient(cfg config.LLMProviderConfig) *ollamaStyleClient {
	return &ollamaStyleClient{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		baseURL:    defaultBaseURL(cfg, "http://localhost:11434"),
	}
}

func (c *ollamaStyleClient) ConvertInputs(prompt string, kwargs map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{
		"model":  c.cfg.Model,
		"prompt": prompt,
		"stream": true,
	}
	options := map[string]interface{}{}
	for k, v := range kwargs {
		options[k] = v
	}
	if len(options) > 0 {
		out["options"] = options
	}
	applyQuirks(out, c.cfg.Model, c.cfg.Quirks, c.cfg.MaxOutputTokens)
	return out
}

func (c *ollamaStyleClient) StreamCompletion(ctx context.Context, apiKwargs map[string]interface{}) (<-chan StreamDelta, <-chan error) {
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

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
		if err != nil {
			errs <- fmt.Errorf("build request: %w", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

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
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var frame ollamaFrame
			if err := json.Unmarshal(line, &frame); err != nil {
				continue
			}
			if frame.Response != "" {
				select {
				case deltas <- StreamDelta{Text: frame.Response}:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
			if frame.Done {
				deltas <- StreamDelta{Done: true}
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- &ProviderError{Kind: KindTransientNetwork, Err: err}
		}
	}()

	return deltas, errs
}

type ollamaFrame struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

func (c *ollamaStyleClient) TrackUsage(lastResponse map[string]interface{}) Usage {
	var u Usage
	if v, ok := lastResponse["prompt_eval_count"].(float64); ok {
		u.PromptTokens = int(v)
	}
	if v, ok := lastResponse["eval_count"].(float64); ok {
		u.CompletionTokens = int(v)
	}
	return u
}
