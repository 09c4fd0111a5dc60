package pagegen

import (
	"context"
	"strings"
	"testing"

	"github.com/wikiforge/wikiforge/pkg/config"
	"github.com/wikiforge/wikiforge/pkg/jobs"
	"github.com/wikiforge/wikiforge/pkg/llmprovider"
)

type scriptedClient struct {
	responses []string
	calls     int
}

func (c *scriptedClient) ConvertInputs(prompt string, kwargs map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"prompt": prompt}
}

func (c *scriptedClient) StreamCompletion(ctx context.Context, apiKwargs map[string]interface{}) (<-chan llmprovider.StreamDelta, <-chan error) {
	deltas := make(chan llmprovider.StreamDelta, 1)
	errs := make(chan error, 1)

	resp := ""
	if c.calls < len(c.responses) {
		resp = c.responses[c.calls]
	}
	c.calls++

	deltas <- llmprovider.StreamDelta{Text: resp, Done: true}
	close(deltas)
	close(errs)
	return deltas, errs
}

func (c *scriptedClient) TrackUsage(map[string]interface{}) llmprovider.Usage { return llmprovider.Usage{} }

func TestGenerate_ReturnsContentAndTokenCounts(t *testing.T) {
	client := &scriptedClient{responses: []string{"# Authentication\n\nThis page covers login flow."}}

	req := Request{
		Page:         jobs.Page{Title: "Authentication", PageID: "page-1"},
		Language:     "en",
		RetrievalCfg: &config.RetrievalConfig{TopK: 5},
	}

	result, err := Generate(context.Background(), nil, client, req, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Content != "# Authentication\n\nThis page covers login flow." {
		t.Errorf("unexpected content: %q", result.Content)
	}
	if result.PromptTokens <= 0 || result.CompletionTokens <= 0 {
		t.Errorf("expected positive token estimates, got prompt=%d completion=%d", result.PromptTokens, result.CompletionTokens)
	}
	if client.calls != 1 {
		t.Errorf("expected exactly 1 completion call (no invalid diagrams), got %d", client.calls)
	}
}

func TestGenerate_FixesInvalidMermaidDiagram(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"# Flow\n\n```mermaid\nbogusType\nA --> B\n```\n",
		"graph TD\nA --> B",
	}}

	req := Request{Page: jobs.Page{Title: "Flow"}, Language: "en"}
	result, err := Generate(context.Background(), nil, client, req, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if client.calls != 2 {
		t.Errorf("expected a page call plus a fix call, got %d calls", client.calls)
	}
	if err := ValidateDiagram("graph TD\nA --> B"); err != nil {
		t.Fatalf("sanity check: fixed diagram should validate, got %v", err)
	}
	if result.Content == "" {
		t.Error("expected non-empty content after diagram fix")
	}
}

func TestGenerate_ReplacesStillInvalidDiagramWithNotice(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"# Flow\n\n```mermaid\nbogusType\nA --> B\n```\n",
		"still bogus, no prefix",
	}}

	req := Request{Page: jobs.Page{Title: "Flow"}}
	result, err := Generate(context.Background(), nil, client, req, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(result.Content, "Diagram omitted") {
		t.Errorf("expected diagram replaced with omission notice, got:\n%s", result.Content)
	}
}
