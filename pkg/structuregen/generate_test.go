package structuregen

import (
	"context"
	"testing"

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

func TestGenerate_SucceedsOnFirstValidAttempt(t *testing.T) {
	client := &scriptedClient{responses: []string{sampleDoc}}

	s, err := Generate(context.Background(), nil, client, PromptRequest{Owner: "o", Repo: "r"}, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if s.Title != "Demo Wiki" {
		t.Errorf("expected Demo Wiki, got %q", s.Title)
	}
	if client.calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", client.calls)
	}
}

func TestGenerate_RetriesThenSucceeds(t *testing.T) {
	client := &scriptedClient{responses: []string{"not xml at all", sampleDoc}}

	s, err := Generate(context.Background(), nil, client, PromptRequest{}, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if client.calls != 2 {
		t.Errorf("expected 2 calls (1 retry), got %d", client.calls)
	}
	if s.Title != "Demo Wiki" {
		t.Errorf("expected recovered structure, got %+v", s)
	}
}

func TestGenerate_FallsBackToRebuildOnThirdFailure(t *testing.T) {
	broken := `<wiki_structure><title>Recovered</title><pages><page id="page-1"><title>P</title></page></pages>`
	client := &scriptedClient{responses: []string{"garbage", "garbage", broken}}

	s, err := Generate(context.Background(), nil, client, PromptRequest{}, nil)
	if err != nil {
		t.Fatalf("expected rebuild to recover, got error: %v", err)
	}
	if s.Title != "Recovered" {
		t.Errorf("expected rebuilt title, got %q", s.Title)
	}
	if client.calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", client.calls)
	}
}

func TestGenerate_FailsWhenRebuildAlsoFails(t *testing.T) {
	client := &scriptedClient{responses: []string{"garbage", "garbage", "still garbage, no tags"}}

	_, err := Generate(context.Background(), nil, client, PromptRequest{}, nil)
	if err == nil {
		t.Fatal("expected ErrStructureGenerationFailed")
	}
}
