package structuregen

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	titleTagPattern       = regexp.MustCompile(`(?is)<title>(.*?)</title>`)
	descriptionTagPattern = regexp.MustCompile(`(?is)<description>(.*?)</description>`)
	pageBlockPattern      = regexp.MustCompile(`(?is)<page\s+id="([^"]*)"[^>]*>(.*?)</page>`)
	importanceTagPattern  = regexp.MustCompile(`(?is)<importance>(.*?)</importance>`)
	fileTagPattern        = regexp.MustCompile(`(?is)<file>(.*?)</file>`)
)

// rebuild is the deterministic, regex-based fallback invoked after the
// third parse failure (spec §4.G step 3): it extracts whatever title,
// description, and page blocks it can find in the raw (unsanitized) LLM
// output and synthesizes a minimal, well-formed Structure directly,
// bypassing XML parsing entirely.
func rebuild(raw string) (*Structure, error) {
	s := &Structure{}

	if m := titleTagPattern.FindStringSubmatch(raw); m != nil {
		s.Title = strings.TrimSpace(stripTags(m[1]))
	}
	if m := descriptionTagPattern.FindStringSubmatch(raw); m != nil {
		s.Description = strings.TrimSpace(stripTags(m[1]))
	}
	if s.Title == "" {
		s.Title = "Untitled wiki"
	}

	matches := pageBlockPattern.FindAllStringSubmatch(raw, -1)
	for i, m := range matches {
		id := strings.TrimSpace(m[1])
		if id == "" {
			id = fmt.Sprintf("page-%d", i+1)
		}
		body := m[2]

		title := firstTagOrFallback(body, "title", fmt.Sprintf("Page %d", i+1))
		description := firstTagOrFallback(body, "description", "")
		importance := "medium"
		if im := importanceTagPattern.FindStringSubmatch(body); im != nil {
			importance = strings.TrimSpace(im[1])
		}

		var files []string
		for _, fm := range fileTagPattern.FindAllStringSubmatch(body, -1) {
			files = append(files, strings.TrimSpace(fm[1]))
		}

		s.Pages = append(s.Pages, Page{
			ID:            id,
			Title:         title,
			Description:   description,
			Importance:    importance,
			RelevantFiles: files,
		})
	}

	if err := validate(s); err != nil {
		return nil, fmt.Errorf("%w: rebuild still invalid: %v", ErrStructureGenerationFailed, err)
	}
	return s, nil
}

func firstTagOrFallback(body, tag, fallback string) string {
	pattern := regexp.MustCompile(`(?is)<` + tag + `>(.*?)</` + tag + `>`)
	if m := pattern.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(stripTags(m[1]))
	}
	return fallback
}

var anyTagPattern = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return anyTagPattern.ReplaceAllString(s, "")
}
