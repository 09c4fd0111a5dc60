package pagegen

import (
	"strings"
	"testing"

	"github.com/wikiforge/wikiforge/pkg/chunking"
)

func TestBuildPrompt_IncludesDetailsHeaderAndFiles(t *testing.T) {
	prompt := BuildPrompt(PromptRequest{
		Title:     "Authentication",
		FilePaths: []string{"auth/login.go", "auth/session.go"},
		Language:  "en",
	})

	if !strings.Contains(prompt, "<details>") || !strings.Contains(prompt, "</details>") {
		t.Errorf("expected a <details> block, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "auth/login.go") || !strings.Contains(prompt, "auth/session.go") {
		t.Errorf("expected both file paths listed, got:\n%s", prompt)
	}
}

func TestBuildPrompt_GroupsChunksByFilePathSorted(t *testing.T) {
	prompt := BuildPrompt(PromptRequest{
		Title: "X",
		Chunks: []chunking.Chunk{
			{FilePath: "z.go", Text: "package z"},
			{FilePath: "a.go", Text: "package a"},
			{FilePath: "a.go", Text: "func A() {}"},
		},
	})

	aIdx := strings.Index(prompt, "### a.go")
	zIdx := strings.Index(prompt, "### z.go")
	if aIdx == -1 || zIdx == -1 || aIdx > zIdx {
		t.Errorf("expected a.go section before z.go section, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "package a") || !strings.Contains(prompt, "func A() {}") {
		t.Errorf("expected both a.go chunks rendered, got:\n%s", prompt)
	}
}

func TestBuildPrompt_OmitsSourceContextWhenNoChunks(t *testing.T) {
	prompt := BuildPrompt(PromptRequest{Title: "X"})
	if strings.Contains(prompt, "Source context:") {
		t.Errorf("expected no Source context section without chunks, got:\n%s", prompt)
	}
}
