package chunk

import (
	"fmt"
	"unicode"
)

// Chunker splits plain text into overlapping bounded-size segments. Boundaries
// are chosen greedily: paragraph break, then line break, then sentence end,
// then whitespace, then a hard cut at maxSize. Consecutive chunks share
// overlap runes of context, so concatenating chunks while trimming the
// overlap reconstructs the original text.
type Chunker struct {
	maxSize int
	overlap int
}

// New validates the split parameters. overlap >= maxSize is a configuration
// error, not a runtime one.
func New(maxSize, overlap int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", maxSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= maxSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, maxSize)
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}, nil
}

// Split returns the ordered chunk sequence for text. The slice position is
// the chunk's sequence index. Text shorter than maxSize yields exactly one
// chunk equal to the whole text; empty text yields no chunks.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.maxSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.maxSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := c.boundaryCut(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))

		next := cut - c.overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// boundaryCut picks the cut position in (start, end], preferring the largest
// structural boundary inside the window. The separator stays with the chunk
// that precedes it.
func (c *Chunker) boundaryCut(runes []rune, start, end int) int {
	// The cut must leave room for forward progress after the overlap slide.
	min := start + c.overlap + 1
	if min > end {
		min = end
	}

	if cut := lastParagraphBreak(runes, min, end); cut > 0 {
		return cut
	}
	if cut := lastLineBreak(runes, min, end); cut > 0 {
		return cut
	}
	if cut := lastSentenceEnd(runes, min, end); cut > 0 {
		return cut
	}
	if cut := lastWhitespace(runes, min, end); cut > 0 {
		return cut
	}
	return end
}

func lastParagraphBreak(runes []rune, min, end int) int {
	for i := end; i >= min && i >= 2; i-- {
		if runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i
		}
	}
	return 0
}

func lastLineBreak(runes []rune, min, end int) int {
	for i := end; i >= min && i >= 1; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	return 0
}

func lastSentenceEnd(runes []rune, min, end int) int {
	for i := end; i >= min && i >= 2; i-- {
		if unicode.IsSpace(runes[i-1]) && isSentenceTerminator(runes[i-2]) {
			return i
		}
	}
	return 0
}

func lastWhitespace(runes []rune, min, end int) int {
	for i := end; i >= min && i >= 1; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return 0
}

func isSentenceTerminator(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	}
	return false
}
