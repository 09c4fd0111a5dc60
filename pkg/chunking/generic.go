package chunking

import "strings"

// splitGeneric is the word-based splitter used when no grammar is
// recognized, parsing fails, the syntax-aware feature flag is off, or a
// syntax-carved block still exceeds maxTokens and must be recursively
// re-split (spec §4.E).
func splitGeneric(filePath, text string, lang Language, maxTokens int) []Chunk {
	lines := strings.Split(text, "\n")
	if maxTokens <= 0 {
		maxTokens = 1
	}

	var chunks []Chunk
	var buf []string
	bufTokens := 0
	startLine := 1

	flush := func(endLine int) {
		if len(buf) == 0 {
			return
		}
		body := strings.Join(buf, "\n")
		chunks = append(chunks, Chunk{
			Text:       body,
			FilePath:   filePath,
			Language:   lang,
			BlockType:  BlockTypeGeneric,
			StartLine:  startLine,
			EndLine:    endLine,
			TokenCount: estimateTokens(body),
		})
		buf = buf[:0]
		bufTokens = 0
	}

	for i, line := range lines {
		lineTokens := estimateTokens(line)
		if bufTokens > 0 && bufTokens+lineTokens > maxTokens {
			flush(i)
			startLine = i + 1
		}
		buf = append(buf, line)
		bufTokens += lineTokens
	}
	flush(len(lines))

	if len(chunks) == 0 {
		chunks = append(chunks, Chunk{
			Text:      text,
			FilePath:  filePath,
			Language:  lang,
			BlockType: BlockTypeGeneric,
			StartLine: 1,
			EndLine:   len(lines),
		})
	}
	return chunks
}

// resplitIfOversized recursively breaks a syntax-carved chunk back down
// with the generic splitter when it exceeds the embedding model's token
// ceiling, preserving its syntax metadata on the first resulting piece.
func resplitIfOversized(c Chunk, maxTokens int) []Chunk {
	if c.TokenCount <= maxTokens {
		return []Chunk{c}
	}

	pieces := splitGeneric(c.FilePath, c.Text, c.Language, maxTokens)
	if len(pieces) == 0 {
		return []Chunk{c}
	}
	pieces[0].SymbolName = c.SymbolName
	pieces[0].Signature = c.Signature
	pieces[0].ParentSymbol = c.ParentSymbol
	pieces[0].BlockType = c.BlockType
	for i := range pieces {
		pieces[i].StartLine += c.StartLine - 1
		pieces[i].EndLine += c.StartLine - 1
	}
	return pieces
}
