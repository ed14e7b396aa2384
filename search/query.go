package search

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	phraseRE = regexp.MustCompile(`"([^"]+)"`)
	tokenRE  = regexp.MustCompile(`[a-zA-Z0-9]{2,}`)
)

// ParseQuery splits a free-text query into folded tokens and required
// phrases. Quoted substrings become phrases; the remainder is folded and
// tokenized into alphanumeric runs of length two or more. Both lists empty
// means the query carries nothing searchable.
func ParseQuery(query string) (tokens, phrases []string) {
	for _, m := range phraseRE.FindAllStringSubmatch(query, -1) {
		if p := strings.TrimSpace(m[1]); p != "" {
			phrases = append(phrases, Fold(p))
		}
	}
	rest := phraseRE.ReplaceAllString(query, " ")
	tokens = tokenRE.FindAllString(Fold(rest), -1)
	return tokens, phrases
}

// MatchMode selects whether a record must contain every query term to
// qualify, or any of them.
type MatchMode string

const (
	MatchAny MatchMode = "any"
	MatchAll MatchMode = "all"
)

// ParseMatchMode maps a user-supplied mode string to a MatchMode. The empty
// string means MatchAny.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(MatchAny):
		return MatchAny, nil
	case string(MatchAll):
		return MatchAll, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadMatchMode, s)
	}
}
