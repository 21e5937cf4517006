// Package keyword extracts the keywords a keyword-table index is keyed on.
package keyword

import (
	"regexp"
	"slices"
	"strings"
)

// ResponsePrefix marks the keyword list in a model answer.
const ResponsePrefix = "KEYWORDS:"

var tokenizerRegex = regexp.MustCompile(`[\p{L}\p{N}]+`)

var englishStopWords = map[string]struct{}{
	"a": {}, "about": {}, "above": {}, "after": {}, "again": {}, "all": {}, "am": {}, "an": {},
	"and": {}, "any": {}, "are": {}, "as": {}, "at": {}, "be": {}, "been": {}, "before": {},
	"being": {}, "below": {}, "between": {}, "both": {}, "but": {}, "by": {}, "can": {}, "did": {},
	"do": {}, "does": {}, "doing": {}, "down": {}, "during": {}, "each": {}, "few": {}, "for": {},
	"from": {}, "further": {}, "had": {}, "has": {}, "have": {}, "having": {}, "he": {}, "her": {},
	"here": {}, "hers": {}, "him": {}, "his": {}, "how": {}, "i": {}, "if": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "its": {}, "itself": {}, "just": {}, "me": {}, "more": {},
	"most": {}, "my": {}, "no": {}, "nor": {}, "not": {}, "now": {}, "of": {}, "off": {},
	"on": {}, "once": {}, "only": {}, "or": {}, "other": {}, "our": {}, "out": {}, "over": {},
	"own": {}, "same": {}, "she": {}, "should": {}, "so": {}, "some": {}, "such": {}, "than": {},
	"that": {}, "the": {}, "their": {}, "them": {}, "then": {}, "there": {}, "these": {}, "they": {},
	"this": {}, "those": {}, "through": {}, "to": {}, "too": {}, "under": {}, "until": {}, "up": {},
	"very": {}, "was": {}, "we": {}, "were": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"while": {}, "who": {}, "whom": {}, "why": {}, "will": {}, "with": {}, "you": {}, "your": {},
}

// Tokenize splits text into lowercase words.
func Tokenize(text string) []string {
	return tokenizerRegex.FindAllString(strings.ToLower(text), -1)
}

// IsStopWord reports whether token is a common English word carrying no topic.
func IsStopWord(token string) bool {
	_, ok := englishStopWords[token]
	return ok
}

// FilterStopWords drops stop words from tokens.
func FilterStopWords(tokens []string) []string {
	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !IsStopWord(token) {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

// Simple returns up to limit keywords of text, most frequent first and ties in order of
// first occurrence. limit <= 0 means no limit.
func Simple(text string, limit int) []string {
	tokens := FilterStopWords(Tokenize(text))
	counts := make(map[string]int, len(tokens))
	var order []string
	for _, tok := range tokens {
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}
	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}
	return order
}

// ParseResponse reads the comma separated keywords following ResponsePrefix in a
// model answer. Multi-word keywords also contribute their single words.
func ParseResponse(response string) []string {
	if i := strings.Index(response, ResponsePrefix); i >= 0 {
		response = response[i+len(ResponsePrefix):]
	}
	seen := make(map[string]struct{})
	var keywords []string
	add := func(kw string) {
		if kw == "" {
			return
		}
		if _, ok := seen[kw]; ok {
			return
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}
	for _, part := range strings.Split(response, ",") {
		kw := strings.ToLower(strings.TrimSpace(part))
		add(kw)
		if words := strings.Fields(kw); len(words) > 1 {
			for _, w := range FilterStopWords(Tokenize(kw)) {
				add(w)
			}
		}
	}
	return keywords
}
