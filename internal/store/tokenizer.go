package store

import (
	"regexp"
	"strings"
	"unicode"
)

// minTokenLength drops single-character fragments left over from
// identifier splitting.
const minTokenLength = 2

// wordRegex matches identifier-shaped runs; underscores survive the
// first pass so snake_case splits in the second.
var wordRegex = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// codeTokenizer turns code text into lowercase search tokens. Identifiers
// explode at underscore and case boundaries, so authenticateUser and
// authenticate_user both index as [authenticate user].
type codeTokenizer struct {
	stopWords map[string]struct{}
}

// newCodeTokenizer builds a tokenizer with the given stop-word list.
func newCodeTokenizer(stopWords []string) *codeTokenizer {
	stop := make(map[string]struct{}, len(stopWords))
	for _, word := range stopWords {
		stop[strings.ToLower(word)] = struct{}{}
	}
	return &codeTokenizer{stopWords: stop}
}

// Tokenize splits, lowercases, and filters text in one pass.
func (t *codeTokenizer) Tokenize(text string) []string {
	var tokens []string
	for _, word := range wordRegex.FindAllString(text, -1) {
		for _, part := range splitIdentifier(word) {
			token := strings.ToLower(part)
			if len(token) < minTokenLength {
				continue
			}
			if _, stop := t.stopWords[token]; stop {
				continue
			}
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// Join tokenizes and rejoins with spaces, the form FTS documents store.
func (t *codeTokenizer) Join(text string) string {
	return strings.Join(t.Tokenize(text), " ")
}

// splitIdentifier explodes snake_case segments, then camelCase within
// each segment.
func splitIdentifier(word string) []string {
	var parts []string
	for _, segment := range strings.Split(word, "_") {
		if segment != "" {
			parts = append(parts, splitCaseBoundaries(segment)...)
		}
	}
	return parts
}

// splitCaseBoundaries cuts a segment at camelCase and acronym boundaries
// by collecting cut indices first, then slicing. A boundary sits before
// an uppercase rune that follows a lowercase one, or that starts the
// tail of an acronym ("HTTPServer" cuts before "Server").
func splitCaseBoundaries(segment string) []string {
	runes := []rune(segment)
	if len(runes) == 0 {
		return nil
	}

	cuts := []int{0}
	for i := 1; i < len(runes); i++ {
		if !unicode.IsUpper(runes[i]) {
			continue
		}
		afterLower := unicode.IsLower(runes[i-1])
		beforeLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
		if afterLower || beforeLower {
			cuts = append(cuts, i)
		}
	}
	cuts = append(cuts, len(runes))

	parts := make([]string, 0, len(cuts)-1)
	for i := 0; i < len(cuts)-1; i++ {
		parts = append(parts, string(runes[cuts[i]:cuts[i+1]]))
	}
	return parts
}
