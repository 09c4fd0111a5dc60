// Package pagegen implements the Page Generator (spec §4.H): prompt
// construction, retrieval-augmented context, Mermaid diagram validation
// with a one-shot LLM fix round-trip, and deterministic token accounting.
package pagegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wikiforge/wikiforge/pkg/chunking"
)

const styleRules = `Style rules: write in clear, direct prose; use Markdown headings that
match the page title's level; prefer short paragraphs and bulleted lists
over long blocks of text; include a Mermaid diagram where it clarifies a
flow, structure, or relationship; never fabricate file paths or APIs that
don't appear in the provided source context.`

// PromptRequest carries everything BuildPrompt needs for one page.
type PromptRequest struct {
	Title       string
	Description string
	FilePaths   []string
	Language    string
	Chunks      []chunking.Chunk
}

// BuildPrompt assembles the page-generation prompt: title, candidate file
// paths, style rules, the required <details> source-file header, and the
// retrieved chunks grouped by file_path (spec §4.H).
func BuildPrompt(req PromptRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Page: %s\n", req.Title)
	if req.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", req.Description)
	}
	fmt.Fprintf(&b, "Documentation language: %s\n\n", req.Language)

	b.WriteString(detailsHeader(req.FilePaths))
	b.WriteString("\n\n")

	b.WriteString(styleRules)
	b.WriteString("\n\n")

	if body := groupedChunks(req.Chunks); body != "" {
		b.WriteString("Source context:\n")
		b.WriteString(body)
	}

	return b.String()
}

// detailsHeader renders the required <details>...</details> block listing
// every candidate source file for the page.
func detailsHeader(filePaths []string) string {
	var b strings.Builder
	b.WriteString("<details>\n<summary>Relevant source files</summary>\n\n")
	for _, p := range filePaths {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	b.WriteString("\n</details>")
	return b.String()
}

// groupedChunks renders retrieved chunks grouped by file_path, in a
// deterministic (sorted) file order.
func groupedChunks(chunks []chunking.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}

	byFile := map[string][]chunking.Chunk{}
	var files []string
	for _, c := range chunks {
		if _, ok := byFile[c.FilePath]; !ok {
			files = append(files, c.FilePath)
		}
		byFile[c.FilePath] = append(byFile[c.FilePath], c)
	}
	sort.Strings(files)

	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "### %s\n", f)
		for _, c := range byFile[f] {
			b.WriteString("```\n")
			b.WriteString(c.Text)
			b.WriteString("\n```\n")
		}
		b.WriteByte('\n')
	}
	return b.String()
}
