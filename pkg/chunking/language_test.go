package chunking

import "testing"

func TestDetectLanguage_ByExtension(t *testing.T) {
	cases := map[string]Language{
		"foo.cs":     LanguageCSharp,
		"foo.ts":     LanguageTypeScript,
		"foo.tsx":    LanguageTSX,
		"foo.d.ts":   LanguageTypeScript,
		"foo.js":     LanguageJavaScript,
		"foo.jsx":    LanguageJavaScript,
		"foo.mjs":    LanguageJavaScript,
		"foo.cjs":    LanguageJavaScript,
		"foo.py":     LanguagePython,
		"foo.unknown": LanguageUnknown,
	}
	for path, want := range cases {
		if got := detectLanguage(path, nil); got != want {
			t.Errorf("detectLanguage(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestDetectLanguage_ShebangTiebreak(t *testing.T) {
	content := []byte("#!/usr/bin/env python3\nprint('hi')\n")
	if got := detectLanguage("run", content); got != LanguagePython {
		t.Errorf("detectLanguage via shebang = %q, want python", got)
	}
}

func TestIsProbablyBinary(t *testing.T) {
	if isProbablyBinary([]byte("hello world")) {
		t.Error("plain text misclassified as binary")
	}
	if !isProbablyBinary([]byte("hello\x00world")) {
		t.Error("NUL-containing content not classified as binary")
	}
}
