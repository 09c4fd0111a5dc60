package chunking

import (
	"bufio"
	"path/filepath"
	"strings"
)

// extensionLanguages maps file extensions to a recognized grammar. Carries
// the original_source/api/syntax_aware_splitter.py aliases: .jsx/.mjs/.cjs
// as JavaScript, .d.ts as TypeScript-without-emit.
// .d.ts is handled separately in detectLanguage since filepath.Ext only
// ever returns the final ".ts" component for a "foo.d.ts" name.
var extensionLanguages = map[string]Language{
	".cs":  LanguageCSharp,
	".ts":  LanguageTypeScript,
	".tsx": LanguageTSX,
	".js":  LanguageJavaScript,
	".jsx": LanguageJavaScript,
	".mjs": LanguageJavaScript,
	".cjs": LanguageJavaScript,
	".py":  LanguagePython,
}

var shebangLanguages = map[string]Language{
	"python": LanguagePython,
	"python3": LanguagePython,
	"node":   LanguageJavaScript,
}

// detectLanguage resolves a file's language by extension, falling back to
// reading a shebang line as a tiebreaker when the extension is absent or
// ambiguous (e.g. extensionless scripts).
func detectLanguage(path string, content []byte) Language {
	name := filepath.Base(path)
	if strings.HasSuffix(name, ".d.ts") {
		return LanguageTypeScript
	}

	ext := filepath.Ext(name)
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}

	return detectShebang(content)
}

func detectShebang(content []byte) Language {
	if len(content) == 0 || content[0] != '#' {
		return LanguageUnknown
	}
	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	if !scanner.Scan() {
		return LanguageUnknown
	}
	line := scanner.Text()
	if !strings.HasPrefix(line, "#!") {
		return LanguageUnknown
	}
	for interpreter, lang := range shebangLanguages {
		if strings.Contains(line, interpreter) {
			return lang
		}
	}
	return LanguageUnknown
}

// isProbablyBinary applies the simple binary heuristic: a NUL byte within
// the first 8KB, matching the common sniff used by text-diff tooling.
func isProbablyBinary(content []byte) bool {
	n := len(content)
	if n > 8192 {
		n = 8192
	}
	for i := 0; i < n; i++ {
		if content[i] == 0 {
			return true
		}
	}
	return false
}
