// Package rowsplit breaks document text into row-sized pieces.
package rowsplit

import "strings"

// DefaultMaxWords bounds a single row's text.
const DefaultMaxWords = 120

// Rows splits text into paragraphs and breaks any paragraph longer than
// maxWords at sentence boundaries. A single sentence longer than maxWords
// stays whole.
func Rows(text string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	var out []string
	for _, para := range Paragraphs(text) {
		if len(strings.Fields(para)) <= maxWords {
			out = append(out, para)
			continue
		}
		out = append(out, splitBySentences(para, maxWords)...)
	}
	return out
}

// Paragraphs splits on double-newlines.
func Paragraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitBySentences packs whole sentences into pieces of at most maxWords.
func splitBySentences(text string, maxWords int) []string {
	var result []string
	var current strings.Builder
	currentWords := 0

	for _, sent := range Sentences(text) {
		sentWords := len(strings.Fields(sent))

		if currentWords+sentWords > maxWords && currentWords > 0 {
			result = append(result, current.String())
			current.Reset()
			currentWords = 0
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentWords += sentWords
	}

	if currentWords > 0 {
		result = append(result, current.String())
	}

	return result
}

// Sentences does basic sentence splitting.
func Sentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
