package structuregen

import (
	"strings"
	"testing"
)

func TestStripFences_RemovesFencedBlock(t *testing.T) {
	raw := "```xml\n<wiki_structure><title>x</title></wiki_structure>\n```"
	got := stripFences(raw)
	if strings.Contains(got, "```") {
		t.Errorf("expected fences removed, got %q", got)
	}
	if !strings.HasPrefix(got, "<wiki_structure>") {
		t.Errorf("expected trimmed document, got %q", got)
	}
}

func TestStripFences_PassesThroughUnfenced(t *testing.T) {
	raw := "<wiki_structure></wiki_structure>"
	if got := stripFences(raw); got != raw {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestRemoveControlChars_StripsC0(t *testing.T) {
	raw := "abc\x01def\x1Fghi"
	got := removeControlChars(raw)
	if got != "abcdefghi" {
		t.Errorf("expected control chars stripped, got %q", got)
	}
}

func TestRemoveControlChars_KeepsTabsAndNewlines(t *testing.T) {
	raw := "abc\tdef\nghi"
	if got := removeControlChars(raw); got != raw {
		t.Errorf("expected tab/newline preserved, got %q", got)
	}
}

func TestEscapeStrayAmpersands_EscapesBareAmpersand(t *testing.T) {
	raw := "Foo & Bar"
	got := escapeStrayAmpersands(raw)
	if got != "Foo &amp; Bar" {
		t.Errorf("expected escaped ampersand, got %q", got)
	}
}

func TestEscapeStrayAmpersands_PreservesValidEntities(t *testing.T) {
	raw := "Foo &amp; Bar &lt;tag&gt;"
	if got := escapeStrayAmpersands(raw); got != raw {
		t.Errorf("expected valid entities untouched, got %q", got)
	}
}
