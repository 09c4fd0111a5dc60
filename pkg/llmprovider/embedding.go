package llmprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"
)

// EmbedWithRetry wraps an EmbeddingClient with the empty-embedding retry
// policy from spec §4.C: up to 3 attempts, exponential backoff 1s/2s/4s. A
// response is valid iff every input produced a non-empty vector; on final
// failure the last response is returned anyway and callers must skip nils.
func EmbedWithRetry(ctx context.Context, client EmbeddingClient, texts []string) ([][]float32, error) {
	var result [][]float32
	var lastErr error

	err := backoff.Retry(func() error {
		vectors, err := client.Embed(ctx, texts)
		if err != nil {
			lastErr = err
			return err
		}
		result = vectors
		if allNonEmpty(vectors) {
			return nil
		}
		lastErr = fmt.Errorf("embedding response contained empty vectors")
		return lastErr
	}, backoff.WithContext(embeddingBackoff(), ctx))

	if err != nil && result == nil {
		return nil, lastErr
	}
	return result, nil
}

func allNonEmpty(vectors [][]float32) bool {
	for _, v := range vectors {
		if len(v) == 0 {
			return false
		}
	}
	return true
}

type openAIEmbeddingClient struct {
	*openAIStyleClient
}

func (c *openAIEmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	model := c.cfg.EmbeddingModel
	if model == "" {
		model = c.cfg.Model
	}

	body, err := json.Marshal(map[string]interface{}{"model": model, "input": texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Kind: KindTransientNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, classifyHTTPError(resp)
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}

	out := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = d.Embedding
		}
	}
	return out, nil
}

type googleEmbeddingClient struct {
	*googleStyleClient
}

func (c *googleEmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	model := c.cfg.EmbeddingModel
	if model == "" {
		model = c.cfg.Model
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		body, err := json.Marshal(map[string]interface{}{
			"model":   "models/" + model,
			"content": map[string]interface{}{"parts": []map[string]string{{"text": text}}},
		})
		if err != nil {
			return nil, err
		}

		url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", c.baseURL, model, c.apiKey)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &ProviderError{Kind: KindTransientNetwork, Err: err}
		}

		if resp.StatusCode >= 300 {
			err := classifyHTTPError(resp)
			resp.Body.Close()
			return nil, err
		}

		var parsed struct {
			Embedding struct {
				Values []float32 `json:"values"`
			} `json:"embedding"`
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("decode embedding response: %w", decodeErr)
		}
		out[i] = parsed.Embedding.Values
	}
	return out, nil
}

type ollamaEmbeddingClient struct {
	*ollamaStyleClient
}

func (c *ollamaEmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	model := c.cfg.EmbeddingModel
	if model == "" {
		model = c.cfg.Model
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		body, err := json.Marshal(map[string]interface{}{"model": model, "prompt": text})
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &ProviderError{Kind: KindTransientNetwork, Err: err}
		}

		if resp.StatusCode >= 300 {
			err := classifyHTTPError(resp)
			resp.Body.Close()
			return nil, err
		}

		var parsed struct {
			Embedding []float32 `json:"embedding"`
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("decode embedding response: %w", decodeErr)
		}
		out[i] = parsed.Embedding
	}
	return out, nil
}
