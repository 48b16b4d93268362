package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

var testDoc = domain.Document{ID: "doc1", Name: "notes.txt"}

func chunkLens(chunks []domain.Chunk) []int {
	lens := make([]int, len(chunks))
	for i, c := range chunks {
		lens[i] = utf8.RuneCountInString(c.Text)
	}
	return lens
}

func TestCharChunkerWindows(t *testing.T) {
	c, err := NewCharChunker(1000, 100)
	require.NoError(t, err)

	text := strings.Repeat("abcdefghij", 250)
	chunks := c.Chunk(testDoc, []domain.Section{{Text: text}})

	require.Len(t, chunks, 3)
	assert.Equal(t, []int{1000, 1000, 700}, chunkLens(chunks))
	assert.Equal(t, []int{0, 900, 1800}, []int{chunks[0].Offset, chunks[1].Offset, chunks[2].Offset})

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		cur := []rune(chunks[i].Text)
		assert.Equal(t, string(prev[len(prev)-100:]), string(cur[:100]), "chunk %d overlap", i)
	}

	// windows cover the whole text in order
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0].Text)
	for _, ch := range chunks[1:] {
		rebuilt.WriteString(string([]rune(ch.Text)[100:]))
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestCharChunkerShortText(t *testing.T) {
	c, err := NewCharChunker(1000, 100)
	require.NoError(t, err)

	chunks := c.Chunk(testDoc, []domain.Section{{Text: "hello"}})
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello", chunks[0].Text)
	assert.Equal(t, "notes.txt", chunks[0].Source)
	assert.Equal(t, "doc1", chunks[0].DocID)
}

func TestCharChunkerExactMultipleHasNoEmptyTail(t *testing.T) {
	c, err := NewCharChunker(10, 2)
	require.NoError(t, err)

	// 18 runes: windows [0,10) and [8,18)
	chunks := c.Chunk(testDoc, []domain.Section{{Text: strings.Repeat("x", 18)}})
	assert.Equal(t, []int{10, 10}, chunkLens(chunks))
	for _, ch := range chunks {
		assert.NotEmpty(t, ch.Text)
	}
}

func TestCharChunkerCountsRunes(t *testing.T) {
	c, err := NewCharChunker(4, 1)
	require.NoError(t, err)

	chunks := c.Chunk(testDoc, []domain.Section{{Text: "héllo wörld"}})
	for _, ch := range chunks {
		assert.True(t, utf8.ValidString(ch.Text))
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), 4)
	}
}

func TestCharChunkerSectionsAreIndependent(t *testing.T) {
	c, err := NewCharChunker(5, 1)
	require.NoError(t, err)

	chunks := c.Chunk(testDoc, []domain.Section{
		{Number: 1, Text: "aaaaaaa"},
		{Number: 2, Text: "   "},
		{Number: 3, Text: "bbb"},
	})

	require.Len(t, chunks, 3)
	assert.Equal(t, 1, chunks[0].Section)
	assert.Equal(t, 1, chunks[1].Section)
	assert.Equal(t, 3, chunks[2].Section)
	assert.Equal(t, "bbb", chunks[2].Text)

	ids := map[string]bool{}
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Seq)
		assert.False(t, ids[ch.ID], "duplicate chunk id")
		ids[ch.ID] = true
	}
}

func TestNewCharChunkerRejectsBadOverlap(t *testing.T) {
	for _, tc := range []struct{ size, overlap int }{
		{100, 100},
		{100, 150},
		{0, 0},
		{100, -1},
	} {
		_, err := NewCharChunker(tc.size, tc.overlap)
		var cfgErr *domain.ConfigError
		assert.True(t, errors.As(err, &cfgErr), "size=%d overlap=%d", tc.size, tc.overlap)
	}
}
