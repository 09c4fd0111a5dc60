package chunking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ErrUnsupportedLanguage signals that no grammar exists for a detected
// language; callers fall back to the generic splitter.
var ErrUnsupportedLanguage = errors.New("chunking: no grammar for language")

// langSpec names the node types that make a top-level semantic unit, the
// node types collected as "leading imports", and how to carve a block type
// out of a unit's grammar name, per spec §4.E's per-language unit list.
type langSpec struct {
	units     map[string]BlockType
	imports   map[string]bool
}

var languageSpecs = map[Language]langSpec{
	LanguageCSharp: {
		units: map[string]BlockType{
			"namespace_declaration": BlockTypeNamespace,
			"class_declaration":     BlockTypeClass,
			"struct_declaration":    BlockTypeStruct,
			"interface_declaration": BlockTypeInterface,
			"enum_declaration":      BlockTypeEnum,
			"record_declaration":    BlockTypeRecord,
		},
		imports: map[string]bool{"using_directive": true},
	},
	LanguageTypeScript: {
		units: map[string]BlockType{
			"function_declaration":  BlockTypeFunction,
			"class_declaration":     BlockTypeClass,
			"interface_declaration": BlockTypeInterface,
			"type_alias_declaration": BlockTypeType,
			"enum_declaration":      BlockTypeEnum,
			"export_statement":      BlockTypeExport,
		},
		imports: map[string]bool{"import_statement": true},
	},
	LanguageTSX: {
		units: map[string]BlockType{
			"function_declaration":  BlockTypeFunction,
			"class_declaration":     BlockTypeClass,
			"interface_declaration": BlockTypeInterface,
			"type_alias_declaration": BlockTypeType,
			"enum_declaration":      BlockTypeEnum,
			"export_statement":      BlockTypeExport,
		},
		imports: map[string]bool{"import_statement": true},
	},
	LanguageJavaScript: {
		units: map[string]BlockType{
			"function_declaration": BlockTypeFunction,
			"class_declaration":    BlockTypeClass,
			"export_statement":     BlockTypeExport,
		},
		imports: map[string]bool{"import_statement": true},
	},
	LanguagePython: {
		units: map[string]BlockType{
			"function_definition": BlockTypeFunction,
			"class_definition":    BlockTypeClass,
		},
		imports: map[string]bool{"import_statement": true, "import_from_statement": true},
	},
}

// parserPools holds one sync.Pool per grammar; parsers are not goroutine-
// safe, so each caller must Get/Put around a single ParseCtx call, the same
// discipline as the teacher's ingestion.TreeSitterParser.
var parserPools = map[Language]*sync.Pool{
	LanguageCSharp:     {New: func() any { return newParser(csharp.GetLanguage()) }},
	LanguageTypeScript: {New: func() any { return newParser(typescript.GetLanguage()) }},
	LanguageTSX:        {New: func() any { return newParser(tsx.GetLanguage()) }},
	LanguageJavaScript: {New: func() any { return newParser(javascript.GetLanguage()) }},
	LanguagePython:     {New: func() any { return newParser(python.GetLanguage()) }},
}

func newParser(lang *sitter.Language) *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	return p
}

// ParseSyntax walks filePath's parse tree and emits one chunk per top-level
// semantic unit, descending nested containers up to maxDepth (spec §4.E).
// Leading imports are prepended to the first emitted chunk's text.
func ParseSyntax(ctx context.Context, filePath string, content []byte, lang Language, maxDepth int) ([]Chunk, error) {
	spec, ok := languageSpecs[lang]
	if !ok {
		return nil, ErrUnsupportedLanguage
	}
	pool := parserPools[lang]

	parserObj := pool.Get()
	parser, ok := parserObj.(*sitter.Parser)
	if !ok {
		return nil, fmt.Errorf("chunking: invalid parser type for %s", lang)
	}
	defer pool.Put(parser)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("chunking: parse %s: %w", filePath, err)
	}
	root := tree.RootNode()

	var chunks []Chunk
	var imports []string
	walkUnits(root, content, spec, filePath, lang, maxDepth, 0, &chunks, &imports)

	if len(imports) > 0 && len(chunks) > 0 {
		joined := joinLines(imports)
		chunks[0].Text = joined + "\n\n" + chunks[0].Text
	}
	return chunks, nil
}

func walkUnits(node *sitter.Node, src []byte, spec langSpec, filePath string, lang Language, maxDepth, depth int, out *[]Chunk, imports *[]string) {
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		typ := child.Type()

		if depth == 0 && spec.imports[typ] {
			*imports = append(*imports, nodeText(child, src))
			continue
		}

		if blockType, ok := spec.units[typ]; ok {
			*out = append(*out, newChunk(child, src, filePath, lang, blockType))
			if depth < maxDepth {
				walkUnits(child, src, spec, filePath, lang, maxDepth, depth+1, out, imports)
			}
			continue
		}

		if depth < maxDepth {
			walkUnits(child, src, spec, filePath, lang, maxDepth, depth+1, out, imports)
		}
	}
}

func newChunk(node *sitter.Node, src []byte, filePath string, lang Language, blockType BlockType) Chunk {
	text := nodeText(node, src)
	start := node.StartPoint()
	end := node.EndPoint()
	return Chunk{
		Text:       text,
		FilePath:   filePath,
		SymbolName: unitName(node, src),
		Language:   lang,
		BlockType:  blockType,
		StartLine:  int(start.Row) + 1,
		EndLine:    int(end.Row) + 1,
		TokenCount: estimateTokens(text),
	}
}

func unitName(node *sitter.Node, src []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return nodeText(nameNode, src)
	}
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "identifier", "type_identifier", "property_identifier":
			return nodeText(child, src)
		}
	}
	return ""
}

func nodeText(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
