package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_SlidingWindow(t *testing.T) {
	chunks, err := NewTextChunker().ChunkText("abcdefghij", 4, 1)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, Chunk{Index: 0, Offset: 0, Length: 4, Text: "abcd"}, chunks[0])
	assert.Equal(t, Chunk{Index: 1, Offset: 3, Length: 4, Text: "defg"}, chunks[1])
	assert.Equal(t, Chunk{Index: 2, Offset: 6, Length: 4, Text: "ghij"}, chunks[2])
}

func TestChunkText_ShortTextIsOneChunk(t *testing.T) {
	chunks, err := NewTextChunker().ChunkText("short résumé", 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short résumé", chunks[0].Text)
	assert.Equal(t, 12, chunks[0].Length)
}

func TestChunkText_CountsRunes(t *testing.T) {
	chunks, err := NewTextChunker().ChunkText("résumé", 3, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "rés", chunks[0].Text)
	assert.Equal(t, "umé", chunks[1].Text)
}

func TestChunkText_CoversTextWithBoundedLengths(t *testing.T) {
	chunker := NewTextChunker()
	text := strings.Repeat("Go engineer with Python experience. ", 97)

	for _, tc := range []struct{ size, overlap int }{
		{size: 1000, overlap: 200},
		{size: 100, overlap: 0},
		{size: 64, overlap: 63},
		{size: 7, overlap: 3},
	} {
		chunks, err := chunker.ChunkText(text, tc.size, tc.overlap)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)

		for i, c := range chunks {
			assert.Equal(t, i, c.Index)
			assert.Equal(t, len([]rune(c.Text)), c.Length)
			assert.LessOrEqual(t, c.Length, tc.size)
			if i < len(chunks)-1 {
				assert.Equal(t, tc.size, c.Length, "only the last chunk may be short")
				assert.Equal(t, c.Offset+tc.size-tc.overlap, chunks[i+1].Offset)
			}
		}
		assert.Equal(t, text, JoinChunks(chunks))
	}
}

func TestChunkText_InvalidParameters(t *testing.T) {
	chunker := NewTextChunker()

	for _, tc := range []struct{ size, overlap int }{
		{size: 0, overlap: 0},
		{size: -1, overlap: 0},
		{size: 10, overlap: 10},
		{size: 10, overlap: 12},
		{size: 10, overlap: -1},
	} {
		_, err := chunker.ChunkText("some text", tc.size, tc.overlap)
		assert.ErrorIs(t, err, ErrInvalidChunkParameters, "size=%d overlap=%d", tc.size, tc.overlap)
	}
}

func TestChunkText_EmptyText(t *testing.T) {
	_, err := NewTextChunker().ChunkText(" \n\t ", 10, 2)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}
