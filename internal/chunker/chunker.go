// Package chunker splits transcript text into overlapping retrieval chunks.
//
// Text is split on the coarsest separator present ("\n\n", then "\n", then
// " ", then individual characters), pieces still longer than the chunk size
// are split again with the next separator, and adjacent pieces are merged
// back together up to the chunk size while carrying the configured overlap
// into the next chunk. All sizes are measured in characters (runes).
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

func New(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", chunkOverlap, chunkSize)
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}, nil
}

// Split returns the chunks of text in order. StartPosition and EndPosition
// are rune offsets into text. Empty or whitespace-only text yields no chunks.
func (s *Splitter) Split(text string) []models.Chunk {
	pieces := s.splitText(text, s.separators)
	chunks := make([]models.Chunk, 0, len(pieces))

	index, previousLen := 0, 0
	for _, piece := range pieces {
		start := indexFrom(text, piece, max(0, index+previousLen-s.chunkOverlap))
		if start < 0 {
			start = indexFrom(text, piece, 0)
		}
		index = start
		previousLen = utf8.RuneCountInString(piece)

		chunks = append(chunks, models.Chunk{
			Ordinal:       len(chunks),
			Text:          piece,
			StartPosition: start,
			EndPosition:   start + previousLen,
		})
	}
	return chunks
}

// Texts is Split without positions.
func (s *Splitter) Texts(text string) []string {
	return s.splitText(text, s.separators)
}

func (s *Splitter) splitText(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var next []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			next = separators[i+1:]
			break
		}
	}

	var final, good []string
	for _, piece := range splitKeepSeparator(text, separator) {
		if utf8.RuneCountInString(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(next) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.splitText(piece, next)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// merge packs consecutive pieces into chunks no longer than chunkSize and
// starts each following chunk with up to chunkOverlap runes of its
// predecessor. Separators are already attached to the pieces.
func (s *Splitter) merge(pieces []string) []string {
	var (
		docs    []string
		current []string
		total   int
	)
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total+n > s.chunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
				docs = append(docs, doc)
			}
			for total > s.chunkOverlap || (total+n > s.chunkSize && total > 0) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}
	if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeepSeparator splits on sep and keeps each separator at the start of
// the piece that follows it. An empty sep splits into single characters.
func splitKeepSeparator(text, sep string) []string {
	var out []string
	if sep == "" {
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.Split(text, sep)
	if parts[0] != "" {
		out = append(out, parts[0])
	}
	for _, p := range parts[1:] {
		out = append(out, sep+p)
	}
	return out
}

// indexFrom is strings.Index over runes, starting at rune offset from.
func indexFrom(text, sub string, from int) int {
	offset := 0
	for i := range text {
		if offset == from {
			if j := strings.Index(text[i:], sub); j >= 0 {
				return from + utf8.RuneCountInString(text[i:i+j])
			}
			return -1
		}
		offset++
	}
	return -1
}
