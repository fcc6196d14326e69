// Package signals provides stateless lexical extractors that turn raw text
// into the primitive measurements the inference and scoring layers consume.
// Every function here is pure: no I/O, no state, deterministic output.
package signals

import (
	"strings"
	"unicode"

	"github.com/asharanees/language-peer/internal/domain"
)

// questionWords are interrogative openers that mark engagement even when
// the transcript lost its punctuation.
var questionWords = []string{"what", "why", "how", "when", "where", "who", "which", "can", "could", "do", "does", "is", "are"}

// Words splits text into lowercase word tokens, stripping surrounding
// punctuation.
func Words(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, strings.ToLower(f))
		}
	}
	return out
}

// WordCount returns the number of word tokens in text.
func WordCount(text string) int {
	return len(Words(text))
}

// SentenceCount returns the number of sentence-terminating runs in text,
// counting at least one sentence for any non-empty input.
func SentenceCount(text string) int {
	count := 0
	inTerminator := false
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			if !inTerminator {
				count++
				inTerminator = true
			}
		default:
			if !unicode.IsSpace(r) {
				inTerminator = false
			}
		}
	}
	if count == 0 && strings.TrimSpace(text) != "" {
		return 1
	}
	return count
}

// TypeTokenRatio returns the ratio of distinct words to total words, a
// rough lexical-diversity measure in [0,1]. Empty text yields 0.
func TypeTokenRatio(text string) float64 {
	words := Words(text)
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}

// ContainsAny reports whether text contains at least one of the phrases,
// case-insensitively.
func ContainsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// CountMatches returns how many of the phrases occur in text,
// case-insensitively. Each phrase counts at most once.
func CountMatches(text string, phrases []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			n++
		}
	}
	return n
}

// HasInterrogative reports whether text looks like a question: it carries a
// question mark or opens with an interrogative word.
func HasInterrogative(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	words := Words(text)
	if len(words) == 0 {
		return false
	}
	for _, q := range questionWords {
		if words[0] == q {
			return true
		}
	}
	return false
}

// LowConfidence reports whether a message carries a transcription
// confidence below cutoff. Typed messages (no confidence) are never low.
func LowConfidence(msg domain.Message, cutoff float64) bool {
	return msg.TranscriptConfidence != nil && *msg.TranscriptConfidence < cutoff
}

// AverageWordLength returns the mean rune length of the words in text,
// 0 for empty input.
func AverageWordLength(text string) float64 {
	words := Words(text)
	if len(words) == 0 {
		return 0
	}
	total := 0
	for _, w := range words {
		total += len([]rune(w))
	}
	return float64(total) / float64(len(words))
}

// Clamp01 bounds v to the [0,1] interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
