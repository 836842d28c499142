package services

import (
	"fmt"
	"strings"
)

// Chunk is a contiguous slice of extracted text. Offset and Length are
// measured in runes from the start of the source text.
type Chunk struct {
	Index  int
	Offset int
	Length int
	Text   string
}

type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) ([]Chunk, error)
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText implements TextChunker. A window of maxChunkSize runes slides
// across the text in steps of maxChunkSize-overlap; only the last chunk may
// be shorter than maxChunkSize.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) ([]Chunk, error) {
	if maxChunkSize <= 0 || overlap < 0 || overlap >= maxChunkSize {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunkParameters, maxChunkSize, overlap)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	runes := []rune(text)
	step := maxChunkSize - overlap

	var chunks []Chunk
	for start := 0; ; start += step {
		end := start + maxChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Offset: start,
			Length: end - start,
			Text:   string(runes[start:end]),
		})

		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}

// JoinChunks rebuilds the source text from an ordered, overlapping chunk sequence.
func JoinChunks(chunks []Chunk) string {
	var b strings.Builder
	covered := 0
	for _, c := range chunks {
		runes := []rune(c.Text)
		skip := covered - c.Offset
		if skip < 0 {
			skip = 0
		}
		if skip < len(runes) {
			b.WriteString(string(runes[skip:]))
		}
		if end := c.Offset + len(runes); end > covered {
			covered = end
		}
	}
	return b.String()
}
