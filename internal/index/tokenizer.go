package index

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball"
	"golang.org/x/text/unicode/norm"
)

const (
	minTokenLength = 2
	maxTokenLength = 50
)

// stopWords are dropped before stemming.
var stopWords = func() map[string]bool {
	words := []string{
		"a", "an", "the",
		"i", "me", "my", "we", "our", "you", "your", "he", "him", "his", "she", "her",
		"it", "its", "they", "them", "their",
		"of", "at", "by", "for", "with", "about", "between", "into", "through", "during",
		"before", "after", "above", "below", "to", "from", "up", "down", "in", "out",
		"on", "off", "over", "under",
		"and", "or", "but", "if", "while", "because", "as", "until", "than", "so", "nor",
		"is", "am", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did",
		"will", "would", "should", "could", "can", "may", "might", "must",
		"this", "that", "these", "those",
		"what", "which", "who", "whom", "when", "where", "why", "how",
		"all", "each", "both", "more", "most", "other", "some", "such",
		"no", "not", "only", "same", "then", "there", "too", "very",
	}

	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()

// Tokenize normalizes text into index terms: NFC, lowercase, split on
// anything that is not a letter or digit, stop words removed, English
// Snowball stems.
func Tokenize(text string) []string {
	text = strings.ToLower(norm.NFC.String(text))

	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r)
	})

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		if n < minTokenLength || n > maxTokenLength || stopWords[w] {
			continue
		}
		tokens = append(tokens, stem(w))
	}
	return tokens
}

// stem returns the English stem of word, or word itself when the stemmer
// rejects it.
func stem(word string) string {
	stemmed, err := snowball.Stem(word, "english", true)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}

// termFrequencies counts the tokens of text.
func termFrequencies(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	return freq
}
