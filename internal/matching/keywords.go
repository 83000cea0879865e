package matching

import (
	"strings"
	"unicode"
)

// defaultStopWords lists English function words plus the filler words
// that dominate lost-and-found reports. Tokens of length <= 2 are
// dropped before this list is consulted, so short words never reach it.
var defaultStopWords = []string{
	"the", "and", "for", "was", "were", "are", "has", "had", "have",
	"this", "that", "these", "those", "with", "from", "into", "about",
	"near", "around", "someone", "anyone", "somewhere", "there", "here",
	"his", "her", "its", "our", "their", "your", "mine", "yours",
	"been", "being", "did", "does", "will", "would", "could", "should",
	"can", "may", "might", "must", "not", "but", "you", "she", "they",
	"lost", "found", "item", "please", "help", "contact", "reward",
	"today", "yesterday", "morning", "afternoon", "evening", "night",
	"tonight", "last", "seen",
}

// DefaultStopWords returns a copy of the built-in stop-word list.
func DefaultStopWords() []string {
	out := make([]string, len(defaultStopWords))
	copy(out, defaultStopWords)
	return out
}

// Extractor turns free report text into a bounded, normalized keyword
// sequence. The stop-word set and the keyword cap are fixed at
// construction; a single Extractor is shared by every matching pass.
type Extractor struct {
	stop  map[string]struct{}
	limit int
}

// NewExtractor builds an Extractor. A nil or empty stopWords slice
// falls back to the built-in list; a non-positive limit falls back
// to 20.
func NewExtractor(stopWords []string, limit int) *Extractor {
	if len(stopWords) == 0 {
		stopWords = defaultStopWords
	}
	if limit <= 0 {
		limit = 20
	}
	stop := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Extractor{stop: stop, limit: limit}
}

// Keywords extracts up to limit normalized tokens from text, in order
// of first appearance. Text is lower-cased, characters outside
// [a-z0-9] and whitespace are removed, and the result is split on
// whitespace. Tokens of length <= 2, stop-words and duplicates are
// dropped.
func (e *Extractor) Keywords(text string) []string {
	if text == "" {
		return nil
	}

	lower := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) <= 2 {
			continue
		}
		if _, skip := e.stop[tok]; skip {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if len(out) == e.limit {
			break
		}
	}
	return out
}

// NormalizeLocation canonicalizes a free-text location for comparison:
// surrounding whitespace is trimmed and the remainder lower-cased.
// Interior punctuation and spacing are kept as typed.
func NormalizeLocation(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// sharedLocationToken reports whether the two normalized locations
// share any whitespace-split token longer than 2 characters.
func sharedLocationToken(a, b string) bool {
	tokensA := strings.Fields(a)
	if len(tokensA) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(tokensA))
	for _, t := range tokensA {
		if len(t) > 2 {
			set[t] = struct{}{}
		}
	}
	for _, t := range strings.Fields(b) {
		if len(t) <= 2 {
			continue
		}
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}
