// Package text splits utterances into engine-sized pieces.
package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// terminators end a sentence. Full-width forms cover CJK input.
const terminators = ".!?…。！？"

// ChunkBySentence groups the sentences of text into chunks of at most
// maxChars characters (runes, not bytes). A sentence longer than maxChars
// is kept whole. maxChars <= 0 disables splitting.
func ChunkBySentence(text string, maxChars int) []string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return []string{text}
	}

	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
		n       int
	)
	for _, s := range sentences {
		l := utf8.RuneCountInString(s)
		switch {
		case n == 0:
			current.WriteString(s)
			n = l
		case n+1+l > maxChars:
			chunks = append(chunks, current.String())
			current.Reset()
			current.WriteString(s)
			n = l
		default:
			current.WriteByte(' ')
			current.WriteString(s)
			n += 1 + l
		}
	}
	if n > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// splitSentences cuts after each run of terminators so "Wait..." and "?!"
// stay attached to their sentence. Blank segments are dropped.
func splitSentences(text string) []string {
	var (
		sentences []string
		start     int
		last      rune // terminator ending the current run, 0 outside a run
	)
	flush := func(end int) {
		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}

	for i, r := range text {
		if strings.ContainsRune(terminators, r) {
			last = r
			continue
		}
		// ASCII terminators need trailing space so "3.5" and "v1.2" survive.
		if last != 0 && (last >= utf8.RuneSelf || unicode.IsSpace(r)) {
			flush(i)
		}
		last = 0
	}
	flush(len(text))
	return sentences
}
