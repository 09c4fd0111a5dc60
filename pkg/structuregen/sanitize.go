package structuregen

import (
	"regexp"
	"strings"
)

var fencedBlockPattern = regexp.MustCompile("(?s)^```(?:xml)?\\s*\\n?(.*?)\\n?```\\s*$")

// stripFences removes a single leading/trailing fenced code block marker
// (```xml ... ``` or ``` ... ```) and trims surrounding whitespace —
// self-correction step 1 of spec §4.G.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if m := fencedBlockPattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

var c0ControlPattern = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)

// removeControlChars strips C0 control characters other than the ones XML
// itself allows (tab, LF, CR) — self-correction step 2, first half.
func removeControlChars(s string) string {
	return c0ControlPattern.ReplaceAllString(s, "")
}

var strayAmpersandPattern = regexp.MustCompile(`&(?:amp|lt|gt|quot|apos|#\d+|#x[0-9a-fA-F]+);|&`)

// escapeStrayAmpersands escapes any `&` that isn't already part of a valid
// XML entity reference — self-correction step 2, second half. LLM output
// frequently emits a bare `&` (e.g. "Foo & Bar") that would otherwise make
// the document unparseable.
func escapeStrayAmpersands(s string) string {
	return strayAmpersandPattern.ReplaceAllStringFunc(s, func(match string) string {
		if match == "&" {
			return "&amp;"
		}
		return match
	})
}

// Sanitize applies all three pre-parse corrections in order.
func Sanitize(raw string) string {
	s := stripFences(raw)
	s = removeControlChars(s)
	s = escapeStrayAmpersands(s)
	return s
}
