package pagegen

import "testing"

func TestExtractMermaidBlocks_FindsFencedDiagram(t *testing.T) {
	content := "intro\n```mermaid\ngraph TD\nA --> B\n```\nrest"
	blocks := ExtractMermaidBlocks(content)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Diagram != "graph TD\nA --> B" {
		t.Errorf("unexpected diagram text: %q", blocks[0].Diagram)
	}
}

func TestValidateDiagram_AcceptsKnownPrefixes(t *testing.T) {
	valid := []string{
		"graph TD\nA --> B",
		"flowchart LR\nA --> B",
		"sequenceDiagram\nAlice->>Bob: Hi",
		"classDiagram\nClassA --> ClassB",
		"stateDiagram-v2\n[*] --> Idle",
		"pie\n\"A\" : 10",
	}
	for _, d := range valid {
		if err := ValidateDiagram(d); err != nil {
			t.Errorf("expected %q to be valid, got error: %v", d, err)
		}
	}
}

func TestValidateDiagram_RejectsUnknownPrefix(t *testing.T) {
	if err := ValidateDiagram("bogusDiagram\nA --> B"); err == nil {
		t.Error("expected error for unrecognized diagram type")
	}
}

func TestValidateDiagram_RejectsUnbalancedBrackets(t *testing.T) {
	if err := ValidateDiagram("graph TD\nA[Start --> B"); err == nil {
		t.Error("expected error for unbalanced bracket")
	}
}

func TestValidateDiagram_RejectsArrowMissingNode(t *testing.T) {
	if err := ValidateDiagram("graph TD\n--> B"); err == nil {
		t.Error("expected error for arrow missing left-hand node")
	}
}

func TestValidateDiagram_RejectsEmpty(t *testing.T) {
	if err := ValidateDiagram("   \n  "); err == nil {
		t.Error("expected error for empty diagram")
	}
}
