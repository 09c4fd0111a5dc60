package chunking

import (
	"context"
	"strings"
	"testing"
)

func TestParseSyntax_Python_EmitsFunctionAndClassChunks(t *testing.T) {
	src := []byte(`import os

def greet(name):
    return "hello " + name

class Greeter:
    def say(self):
        pass
`)

	chunks, err := ParseSyntax(context.Background(), "greet.py", src, LanguagePython, 2)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 top-level chunks (function, class), got %d: %+v", len(chunks), chunks)
	}

	if chunks[0].SymbolName != "greet" || chunks[0].BlockType != BlockTypeFunction {
		t.Errorf("expected first chunk to be function greet, got %+v", chunks[0])
	}
	if chunks[1].SymbolName != "Greeter" || chunks[1].BlockType != BlockTypeClass {
		t.Errorf("expected second chunk to be class Greeter, got %+v", chunks[1])
	}
}

func TestParseSyntax_Python_PrependsLeadingImport(t *testing.T) {
	src := []byte("import sys\n\ndef main():\n    sys.exit(0)\n")

	chunks, err := ParseSyntax(context.Background(), "m.py", src, LanguagePython, 2)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if got := chunks[0].Text; !containsAll(got, "import sys", "def main") {
		t.Errorf("expected leading import prepended to first chunk, got %q", got)
	}
}

func TestParseSyntax_UnsupportedLanguage(t *testing.T) {
	_, err := ParseSyntax(context.Background(), "f.go", []byte("package main"), LanguageUnknown, 2)
	if err != ErrUnsupportedLanguage {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
