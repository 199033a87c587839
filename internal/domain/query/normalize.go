// Package query turns free-text chat messages into catalog search strings.
package query

import (
	"strings"
	"unicode"
)

// stopWords are intent and filler words that carry no product signal.
var stopWords = map[string]struct{}{
	"best": {}, "top": {}, "good": {}, "recommend": {}, "recommended": {},
	"show": {}, "me": {}, "please": {}, "cheap": {}, "cheapest": {},
	"buy": {}, "need": {}, "want": {}, "under": {}, "below": {},
	"within": {}, "budget": {},
}

// IsStopWord reports whether token is dropped by Normalize.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// Normalize lowercases raw, replaces everything except [a-z0-9] and whitespace
// with spaces, drops stop words and collapses whitespace.
// The result may be empty; see Effective.
func Normalize(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case unicode.IsSpace(r):
			return r
		default:
			return ' '
		}
	}, strings.ToLower(raw))

	tokens := strings.Fields(cleaned)
	kept := tokens[:0]
	for _, t := range tokens {
		if !IsStopWord(t) {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, " ")
}

// Effective returns the string used for retrieval. It never turns a non-blank
// message into an empty query: when every token is a stop word ("best") the
// lowercased, trimmed message is used as is.
func Effective(raw string) string {
	if q := Normalize(raw); q != "" {
		return q
	}
	return strings.ToLower(strings.TrimSpace(raw))
}
