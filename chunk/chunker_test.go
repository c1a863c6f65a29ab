package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, Split("", 100))
	assert.Empty(t, Split("   \n\n  \n", 100))
}

func TestSplit_SingleShortParagraph(t *testing.T) {
	chunks := Split("A single paragraph.", 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "A single paragraph.", chunks[0])
}

func TestSplit_AccumulatesUpToLimit(t *testing.T) {
	text := "first paragraph here\n\nsecond paragraph here\n\nthird paragraph here"

	// Generous limit: everything fits in one chunk
	chunks := Split(text, 1000)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])

	// Tight limit: one paragraph per chunk
	chunks = Split(text, 25)
	require.Len(t, chunks, 3)
	assert.Equal(t, "first paragraph here", chunks[0])
	assert.Equal(t, "second paragraph here", chunks[1])
	assert.Equal(t, "third paragraph here", chunks[2])
}

func TestSplit_FlushesWhenNextParagraphWouldOverflow(t *testing.T) {
	text := "aaaa\n\nbbbb\n\ncccc"

	// "aaaa\n\nbbbb" is 10 chars, adding "\n\ncccc" would make 16 > 12
	chunks := Split(text, 12)
	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaa\n\nbbbb", chunks[0])
	assert.Equal(t, "cccc", chunks[1])
}

func TestSplit_OversizedParagraphKeptWhole(t *testing.T) {
	long := strings.Repeat("x", 500)
	text := "short\n\n" + long + "\n\nalso short"

	chunks := Split(text, 100)
	require.Len(t, chunks, 3)
	assert.Equal(t, "short", chunks[0])
	assert.Equal(t, long, chunks[1])
	assert.Equal(t, "also short", chunks[2])
}

func TestSplit_Reconstruction(t *testing.T) {
	// Concatenating all chunks with the paragraph separator reproduces the
	// original text (modulo trimmed outer whitespace).
	texts := []string{
		"one\n\ntwo\n\nthree\n\nfour\n\nfive",
		"a lone paragraph without separators",
		"para one\n\npara two",
	}
	for _, text := range texts {
		for _, limit := range []int{10, 50, 10000} {
			chunks := Split(text, limit)
			assert.Equal(t, text, strings.Join(chunks, "\n\n"))
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := "alpha\n\nbeta\n\ngamma\n\ndelta"
	first := Split(text, 15)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Split(text, 15))
	}
}

func TestSplit_NormalizesWindowsLineEndings(t *testing.T) {
	chunks := Split("one\r\n\r\ntwo", 4)
	require.Len(t, chunks, 2)
	assert.Equal(t, "one", chunks[0])
	assert.Equal(t, "two", chunks[1])
}

func TestSplit_NonPositiveLimitUsesDefault(t *testing.T) {
	text := "hello\n\nworld"
	chunks := Split(text, 0)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}
