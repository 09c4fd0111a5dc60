package pagegen

import (
	"regexp"
	"strings"
)

// diagramPrefixes are the recognized Mermaid diagram type declarations
// (spec §4.H).
var diagramPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`^graph\s+(TD|LR|TB|RL|BT)\b`),
	regexp.MustCompile(`^flowchart\b`),
	regexp.MustCompile(`^sequenceDiagram\b`),
	regexp.MustCompile(`^classDiagram\b`),
	regexp.MustCompile(`^stateDiagram(-v2)?\b`),
	regexp.MustCompile(`^erDiagram\b`),
	regexp.MustCompile(`^journey\b`),
	regexp.MustCompile(`^gantt\b`),
	regexp.MustCompile(`^pie\b`),
	regexp.MustCompile(`^gitGraph\b`),
}

var mermaidFencePattern = regexp.MustCompile("(?s)```mermaid\\s*\\n(.*?)\\n?```")

// MermaidBlock is one fenced mermaid block found in generated page content,
// with its position in the original string for in-place replacement.
type MermaidBlock struct {
	Diagram string
	Start   int
	End     int
}

// ExtractMermaidBlocks finds every fenced ```mermaid ... ``` block.
func ExtractMermaidBlocks(content string) []MermaidBlock {
	matches := mermaidFencePattern.FindAllStringSubmatchIndex(content, -1)
	blocks := make([]MermaidBlock, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, MermaidBlock{
			Diagram: content[m[2]:m[3]],
			Start:   m[0],
			End:     m[1],
		})
	}
	return blocks
}

var arrowPattern = regexp.MustCompile(`(-->|---|-\.->|==>|->>|-->>)`)

// ValidateDiagram checks the three rules from spec §4.H: a recognized
// diagram-type prefix, balanced brackets/parens/braces per line, and every
// arrow having a node on both sides.
func ValidateDiagram(diagram string) error {
	trimmed := strings.TrimSpace(diagram)
	if trimmed == "" {
		return errDiagram("empty diagram")
	}

	firstLine := trimmed
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		firstLine = trimmed[:idx]
	}
	firstLine = strings.TrimSpace(firstLine)

	matchedPrefix := false
	for _, p := range diagramPrefixes {
		if p.MatchString(firstLine) {
			matchedPrefix = true
			break
		}
	}
	if !matchedPrefix {
		return errDiagram("unrecognized diagram type: " + firstLine)
	}

	for _, line := range strings.Split(trimmed, "\n") {
		if err := checkBalanced(line); err != nil {
			return err
		}
		if err := checkArrowEndpoints(line); err != nil {
			return err
		}
	}
	return nil
}

func checkBalanced(line string) error {
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	var stack []rune
	for _, r := range line {
		switch r {
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return errDiagram("unbalanced bracket on line: " + line)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) != 0 {
		return errDiagram("unbalanced bracket on line: " + line)
	}
	return nil
}

func checkArrowEndpoints(line string) error {
	loc := arrowPattern.FindStringIndex(line)
	if loc == nil {
		return nil
	}
	before := strings.TrimSpace(line[:loc[0]])
	after := strings.TrimSpace(line[loc[1]:])
	if before == "" || after == "" {
		return errDiagram("arrow missing node on one side: " + line)
	}
	return nil
}

func errDiagram(msg string) error {
	return diagramError(msg)
}

type diagramError string

func (e diagramError) Error() string { return "pagegen: invalid mermaid diagram: " + string(e) }
