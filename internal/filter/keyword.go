// Package filter implements case-insensitive keyword matching against article text.
package filter

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxKeywordLength is the longest keyword accepted, in characters.
const MaxKeywordLength = 100

// Keyword validation errors.
var (
	ErrEmptyKeyword   = errors.New("keyword is empty")
	ErrKeywordTooLong = fmt.Errorf("keyword exceeds %d characters", MaxKeywordLength)
)

// NormalizeKeyword lower-cases a keyword. Surrounding spaces are kept and
// take part in substring matching, so " ai " does not match "maid".
// An empty or whitespace-only keyword is rejected.
func NormalizeKeyword(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", ErrEmptyKeyword
	}
	kw := strings.ToLower(s)
	if utf8.RuneCountInString(kw) > MaxKeywordLength {
		return "", ErrKeywordTooLong
	}
	return kw, nil
}

// SearchText builds the lower-cased text that keywords are matched against.
func SearchText(title, description, content string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{title, description, content} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// MatchAny reports whether any keyword is a substring of text.
// Matching ignores case and word boundaries: "art" matches "Article".
// Empty keywords never match.
func MatchAny(text string, keywords []string) bool {
	return len(MatchedKeywords(text, keywords)) > 0
}

// MatchedKeywords returns the keywords that occur in text, in input order.
func MatchedKeywords(text string, keywords []string) []string {
	if text == "" || len(keywords) == 0 {
		return nil
	}
	lower := strings.ToLower(text)

	var matched []string
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return matched
}
