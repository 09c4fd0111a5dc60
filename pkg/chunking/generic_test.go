package chunking

import (
	"strings"
	"testing"
)

func TestSplitGeneric_RespectsTokenCeiling(t *testing.T) {
	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, "this is a line of moderately long sample text for chunking")
	}
	text := strings.Join(lines, "\n")

	chunks := splitGeneric("file.txt", text, LanguageUnknown, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for long text, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.TokenCount > 50*2 {
			t.Errorf("chunk token count %d wildly exceeds ceiling 50", c.TokenCount)
		}
		if c.BlockType != BlockTypeGeneric {
			t.Errorf("expected generic block type, got %q", c.BlockType)
		}
	}
}

func TestSplitGeneric_SingleChunkForShortText(t *testing.T) {
	chunks := splitGeneric("file.txt", "short text", LanguageUnknown, 8000)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].StartLine != 1 {
		t.Errorf("expected StartLine 1, got %d", chunks[0].StartLine)
	}
}

func TestResplitIfOversized_PreservesMetadataOnFirstPiece(t *testing.T) {
	big := strings.Repeat("word ", 5000)
	c := Chunk{Text: big, FilePath: "f.py", SymbolName: "big_fn", BlockType: BlockTypeFunction, TokenCount: estimateTokens(big), StartLine: 10}

	pieces := resplitIfOversized(c, 100)
	if len(pieces) < 2 {
		t.Fatalf("expected oversized chunk to be re-split, got %d pieces", len(pieces))
	}
	if pieces[0].SymbolName != "big_fn" {
		t.Errorf("expected first piece to retain symbol name, got %q", pieces[0].SymbolName)
	}
	if pieces[0].StartLine < 10 {
		t.Errorf("expected line numbers offset from original start, got %d", pieces[0].StartLine)
	}
}

func TestResplitIfOversized_NoOpUnderCeiling(t *testing.T) {
	c := Chunk{Text: "small", TokenCount: 5}
	pieces := resplitIfOversized(c, 100)
	if len(pieces) != 1 || pieces[0].Text != "small" {
		t.Fatalf("expected no-op for under-ceiling chunk, got %+v", pieces)
	}
}
