package internal

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const DefaultMaxChunkChars = 2000

// Chunker splits extracted text into word-aligned fragments of at most
// maxChars runes. It holds no mutable state and may be shared.
type Chunker struct {
	maxChars int
}

func NewChunker(maxChunkChars int) (*Chunker, error) {
	if maxChunkChars <= 0 {
		return nil, fmt.Errorf("%w: max chunk chars must be positive, got %d", ErrInvalidConfig, maxChunkChars)
	}
	return &Chunker{maxChars: maxChunkChars}, nil
}

func (c *Chunker) MaxChars() int {
	return c.maxChars
}

// ChunkText is a shorthand for NewChunker followed by Chunk.
func ChunkText(source, text string, maxChunkChars int) ([]Fragment, error) {
	c, err := NewChunker(maxChunkChars)
	if err != nil {
		return nil, err
	}
	return c.Chunk(source, text), nil
}

// Chunk never splits a word: a word longer than the limit becomes a
// fragment of its own.
func (c *Chunker) Chunk(source, text string) []Fragment {
	var (
		frags  []Fragment
		buf    strings.Builder
		length int
		offset int
	)

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		ordinal := len(frags)
		frags = append(frags, Fragment{
			ID:      NewFragmentID(source, ordinal),
			Source:  source,
			Ordinal: ordinal,
			Offset:  offset,
			Content: buf.String(),
		})
		buf.Reset()
		length = 0
	}

	for _, w := range splitWords(text) {
		wordLen := utf8.RuneCountInString(w.text)
		if length > 0 && length+1+wordLen > c.maxChars {
			flush()
		}
		if length == 0 {
			offset = w.offset
		} else {
			buf.WriteByte(' ')
			length++
		}
		buf.WriteString(w.text)
		length += wordLen
	}
	flush()

	return frags
}

type word struct {
	text   string
	offset int
}

func splitWords(text string) []word {
	var words []word
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, word{text: text[start:i], offset: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, word{text: text[start:], offset: start})
	}
	return words
}
