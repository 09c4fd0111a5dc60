package structuregen

import (
	"fmt"
	"strings"
)

const maxFileTreeEntries = 500

// PromptRequest carries the inputs the structure-generation prompt is
// built from (spec §4.G).
type PromptRequest struct {
	Owner         string
	Repo          string
	FileTree      []string
	README        string
	Language      string
	Comprehensive bool
}

const comprehensiveSkeleton = `Produce a comprehensive wiki structure with multiple top-level sections, each grouping related pages, plus an outer <sections> element nesting subsections where appropriate.`

const conciseSkeleton = `Produce a concise wiki structure: a flat list of pages covering only the most important areas, with no nested sections.`

// BuildPrompt assembles the provider-agnostic structure-generation prompt:
// owner/repo, a file-tree listing bounded to 500 entries, the optional
// README, the target language, and a mode-specific skeleton.
func BuildPrompt(req PromptRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Repository: %s/%s\n", req.Owner, req.Repo)
	fmt.Fprintf(&b, "Documentation language: %s\n\n", req.Language)

	b.WriteString("File tree:\n")
	tree := req.FileTree
	truncated := false
	if len(tree) > maxFileTreeEntries {
		tree = tree[:maxFileTreeEntries]
		truncated = true
	}
	for _, path := range tree {
		b.WriteString(path)
		b.WriteByte('\n')
	}
	if truncated {
		fmt.Fprintf(&b, "... (%d more files omitted)\n", len(req.FileTree)-maxFileTreeEntries)
	}
	b.WriteByte('\n')

	if strings.TrimSpace(req.README) != "" {
		b.WriteString("README:\n")
		b.WriteString(req.README)
		b.WriteString("\n\n")
	}

	if req.Comprehensive {
		b.WriteString(comprehensiveSkeleton)
	} else {
		b.WriteString(conciseSkeleton)
	}
	b.WriteByte('\n')

	b.WriteString("\nRespond with a single XML document rooted at <wiki_structure> containing <title>, ")
	b.WriteString("<description>, and <pages> (each <page id=\"...\"> with <title>, <description>, ")
	b.WriteString("<importance>, <relevant_files>, <related_pages>)")
	if req.Comprehensive {
		b.WriteString(", wrapped in an outer <sections> element")
	}
	b.WriteString(". No prose outside the XML document.\n")

	return b.String()
}
