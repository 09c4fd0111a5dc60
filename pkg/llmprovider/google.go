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

// googleStyleClient implements the Google generate-content API wire shape:
// a chunked JSON array body rather than SSE framing.
type googleStyleClient struct {
	cfg        config.LLMProviderConfig
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func newGoogleStyleClient(cfg config.LLMProviderConfig) *googleStyleClient {
	return &googleStyleClient{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		baseURL:    defaultBaseURL(cfg, "https://generativelanguage.googleapis.com/v1beta"),
		apiKey:     os.Getenv(cfg.APIKeyEnv),
	}
}

func (c *googleStyleClient) ConvertInputs(prompt string, kwargs map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"role": "user", "parts": []map[string]string{{"text": prompt}}},
		},
	}
	for k, v := range kwargs {
		out[k] = v
	}
	applyQuirks(out, c.cfg.Model, c.cfg.Quirks, c.cfg.MaxOutputTokens)
	return out
}

func (c *googleStyleClient) StreamCompletion(ctx context.Context, apiKwargs map[string]interface{}) (<-chan StreamDelta, <-chan error) {
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

		url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", c.baseURL, c.cfg.Model, c.apiKey)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
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
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var frame googleStreamFrame
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
				continue
			}
			for _, cand := range frame.Candidates {
				for _, part := range cand.Content.Parts {
					if part.Text == "" {
						continue
					}
					select {
					case deltas <- StreamDelta{Text: part.Text}:
					case <-ctx.Done():
						errs <- ctx.Err()
						return
					}
				}
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

type googleStreamFrame struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (c *googleStyleClient) TrackUsage(lastResponse map[string]interface{}) Usage {
	usage, _ := lastResponse["usageMetadata"].(map[string]interface{})
	var u Usage
	if v, ok := usage["promptTokenCount"].(float64); ok {
		u.PromptTokens = int(v)
	}
	if v, ok := usage["candidatesTokenCount"].(float64); ok {
		u.CompletionTokens = int(v)
	}
	return u
}
