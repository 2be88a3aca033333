// Package scoring provides relevance scorers for the content index.
package scoring

import (
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

// Tokenize lowercases s and splits it into Unicode words.
func Tokenize(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

// tokenSet returns the distinct tokens of s.
func tokenSet(s string) map[string]struct{} {
	tokens := Tokenize(s)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}
