// Package chunker segments ingested Arabic source text into paragraphs
// and sentences, and extracts bounded word-window context snippets used
// to give translators local coherence around a gap.
package chunker

import (
	"strings"
	"unicode"
)

const (
	// DefaultContextWords bounds the context snippets attached to gap
	// records so batch documents stay reviewable.
	DefaultContextWords = 25
)

// sentenceEnders terminate a sentence in mixed Arabic/Latin text.
// U+061F is the Arabic question mark, U+06D4 the Arabic full stop.
var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true,
	'؟': true, '۔': true,
}

// Paragraphs splits text on blank lines, trimming each paragraph and
// dropping empty ones. CRLF input is handled.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Sentences splits a paragraph at sentence-ending punctuation (Western
// and Arabic) followed by whitespace or end of text. Text without any
// terminal punctuation is returned as a single sentence.
func Sentences(paragraph string) []string {
	runes := []rune(paragraph)
	var out []string
	start := 0

	for i := 0; i < len(runes); i++ {
		if !sentenceEnders[runes[i]] {
			continue
		}
		// Consume a run of closing punctuation (e.g. "?!").
		end := i
		for end+1 < len(runes) && sentenceEnders[runes[end+1]] {
			end++
		}
		if end+1 < len(runes) && !unicode.IsSpace(runes[end+1]) {
			i = end
			continue
		}
		s := strings.TrimSpace(string(runes[start : end+1]))
		if s != "" {
			out = append(out, s)
		}
		start = end + 1
		i = end
	}

	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		out = append(out, rest)
	}
	return out
}

// ContextBefore returns the last wordCount words of text, for use as the
// "before" context of the following segment. Zero or negative wordCount
// uses DefaultContextWords.
func ContextBefore(text string, wordCount int) string {
	if wordCount <= 0 {
		wordCount = DefaultContextWords
	}
	words := strings.Fields(text)
	if len(words) <= wordCount {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[len(words)-wordCount:], " ")
}

// ContextAfter returns the first wordCount words of text, for use as the
// "after" context of the preceding segment.
func ContextAfter(text string, wordCount int) string {
	if wordCount <= 0 {
		wordCount = DefaultContextWords
	}
	words := strings.Fields(text)
	if len(words) <= wordCount {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[:wordCount], " ")
}
