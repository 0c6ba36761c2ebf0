package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{name: "defaults", size: DefaultChunkSize, overlap: DefaultChunkOverlap},
		{name: "no overlap", size: 10, overlap: 0},
		{name: "zero size", size: 0, overlap: 0, wantErr: true},
		{name: "negative overlap", size: 10, overlap: -1, wantErr: true},
		{name: "overlap equals size", size: 10, overlap: 10, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.size, tt.overlap)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitSmallInputs(t *testing.T) {
	s, err := New(DefaultChunkSize, DefaultChunkOverlap)
	require.NoError(t, err)

	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   \n\n  "))

	chunks := s.Split("  a short transcript  ")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short transcript", chunks[0].Text)
	assert.Equal(t, 2, chunks[0].StartPosition)
	assert.Equal(t, 20, chunks[0].EndPosition)
}

func TestSplitMergesWords(t *testing.T) {
	s, err := New(10, 3)
	require.NoError(t, err)

	chunks := s.Split("aaaa bbbb cccc dddd")
	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaa bbbb", chunks[0].Text)
	assert.Equal(t, "cccc dddd", chunks[1].Text)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 1, chunks[1].Ordinal)
	assert.Equal(t, 10, chunks[1].StartPosition)
}

func TestSplitCarriesOverlap(t *testing.T) {
	s, err := New(10, 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"ab cd ef", "ef gh ij"}, s.Texts("ab cd ef gh ij"))
}

func TestSplitPrefersParagraphs(t *testing.T) {
	s, err := New(20, 0)
	require.NoError(t, err)

	got := s.Texts("first paragraph\n\nsecond paragraph\nwith two lines")
	assert.Equal(t, []string{"first paragraph", "second paragraph", "with two lines"}, got)
}

func TestSplitFallsBackToCharacters(t *testing.T) {
	s, err := New(4, 1)
	require.NoError(t, err)

	got := s.Texts("abcdefghij")
	assert.Equal(t, []string{"abcd", "defg", "ghij"}, got)
}

func TestSplitCountsRunes(t *testing.T) {
	s, err := New(6, 0)
	require.NoError(t, err)

	chunks := s.Split("héllo wörld")
	require.Len(t, chunks, 2)
	assert.Equal(t, "héllo", chunks[0].Text)
	assert.Equal(t, "wörld", chunks[1].Text)
	assert.Equal(t, 6, chunks[1].StartPosition)
	assert.Equal(t, 11, chunks[1].EndPosition)
}

func TestSplitTranscriptDefaults(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 600; i++ {
		fmt.Fprintf(&sb, "word%03d ", i)
	}
	text := strings.TrimSpace(sb.String())

	s, err := New(DefaultChunkSize, DefaultChunkOverlap)
	require.NoError(t, err)

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 4)

	runes := []rune(text)
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), DefaultChunkSize)
		assert.Equal(t, c.Text, string(runes[c.StartPosition:c.EndPosition]))
		if i > 0 {
			prev := chunks[i-1]
			assert.Less(t, c.StartPosition, prev.EndPosition, "chunk %d should overlap its predecessor", i)
			assert.GreaterOrEqual(t, prev.EndPosition-c.StartPosition, DefaultChunkOverlap-8)
		}
	}
	assert.True(t, strings.HasPrefix(text, chunks[0].Text))
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1].Text))
}

func TestSplitIsDeterministic(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog.\n", 120)

	s, err := New(DefaultChunkSize, DefaultChunkOverlap)
	require.NoError(t, err)

	first := s.Split(text)
	second := s.Split(text)
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}
