package structuregen

import (
	"strings"
	"testing"
)

func TestBuildPrompt_TruncatesFileTreeAt500Entries(t *testing.T) {
	var tree []string
	for i := 0; i < 600; i++ {
		tree = append(tree, "file.go")
	}

	prompt := BuildPrompt(PromptRequest{Owner: "o", Repo: "r", FileTree: tree, Language: "en"})
	if !strings.Contains(prompt, "100 more files omitted") {
		t.Errorf("expected truncation notice for 100 omitted files, got:\n%s", prompt)
	}
}

func TestBuildPrompt_ComprehensiveMentionsSections(t *testing.T) {
	prompt := BuildPrompt(PromptRequest{Owner: "o", Repo: "r", Comprehensive: true})
	if !strings.Contains(prompt, "<sections>") {
		t.Errorf("expected comprehensive prompt to mention <sections>, got:\n%s", prompt)
	}
}

func TestBuildPrompt_ConciseOmitsSections(t *testing.T) {
	prompt := BuildPrompt(PromptRequest{Owner: "o", Repo: "r", Comprehensive: false})
	if strings.Contains(prompt, "wrapped in an outer <sections>") {
		t.Errorf("expected concise prompt to omit sections wrapper instruction, got:\n%s", prompt)
	}
}
