package index

import (
	"strings"
	"unicode/utf8"
)

// Default chunking parameters.
const (
	DefaultChunkSize    = 5000
	DefaultChunkOverlap = 200
)

// defaultSeparators are tried in order: paragraphs, lines, words, then
// single characters.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Chunker splits text into overlapping chunks of at most Size runes,
// preferring to break at the coarsest separator that fits.
type Chunker struct {
	Size       int
	Overlap    int
	Separators []string
}

// NewChunker returns a Chunker with the given size and overlap. Overlap is
// clamped below size.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{Size: size, Overlap: overlap, Separators: defaultSeparators}
}

// Split returns the non-blank chunks of text.
func (c *Chunker) Split(text string) []string {
	return c.split(text, c.Separators)
}

func (c *Chunker) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = strings.Split(text, "")
	} else {
		pieces = strings.Split(text, sep)
	}

	chunks := make([]string, 0)
	small := make([]string, 0)
	for _, p := range pieces {
		if runeLen(p) < c.Size {
			small = append(small, p)
			continue
		}
		if len(small) > 0 {
			chunks = append(chunks, c.merge(small, sep)...)
			small = small[:0]
		}
		if len(rest) == 0 {
			chunks = append(chunks, p)
		} else {
			chunks = append(chunks, c.split(p, rest)...)
		}
	}
	if len(small) > 0 {
		chunks = append(chunks, c.merge(small, sep)...)
	}

	return chunks
}

// merge packs pieces joined by sep into chunks up to Size, carrying up to
// Overlap runes of trailing pieces into the next chunk.
func (c *Chunker) merge(pieces []string, sep string) []string {
	sepLen := runeLen(sep)
	chunks := make([]string, 0)
	current := make([]string, 0)
	total := 0

	joinedLen := func(extra int) int {
		if len(current) > 0 {
			return total + extra + sepLen
		}
		return total + extra
	}

	for _, p := range pieces {
		n := runeLen(p)
		if joinedLen(n) > c.Size && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > c.Overlap || (joinedLen(n) > c.Size && total > 0) {
				drop := runeLen(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
		if len(current) > 1 {
			total += sepLen
		}
	}

	if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
