// Package query turns free-text questions into disjunctive, fuzzy index
// query strings.
package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// StopWords are dropped from questions before they are searched.
var StopWords = map[string]struct{}{
	"tell": {},
	"me":   {},
	"what": {},
	"how":  {},
	"is":   {},
	"are":  {},
	"the":  {},
}

// FuzzyMinLength is the shortest token that gets a fuzzy suffix; shorter
// tokens are matched literally.
const FuzzyMinLength = 4

// fuzzySuffix requests matches within edit distance one.
const fuzzySuffix = "~1"

// Clean lowercases the question, removes stop words and punctuation, adds a
// fuzzy suffix to every token longer than three characters and joins the
// result with OR. It returns "" when no terms remain.
func Clean(question string) string {
	words := strings.Fields(strings.ToLower(question))

	kept := words[:0]
	for _, w := range words {
		if _, stop := StopWords[w]; !stop {
			kept = append(kept, w)
		}
	}

	stripped := strings.Map(keepRune, strings.Join(kept, " "))

	var terms []string
	for _, w := range strings.Fields(stripped) {
		if utf8.RuneCountInString(w) >= FuzzyMinLength {
			w += fuzzySuffix
		}
		terms = append(terms, w)
	}
	return strings.Join(terms, " OR ")
}

// keepRune drops every rune that is not a word character, whitespace or one
// of the query operators + - * " ( ).
func keepRune(r rune) rune {
	switch {
	case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', unicode.IsSpace(r):
		return r
	case strings.ContainsRune(`+-*"()`, r):
		return r
	}
	return -1
}
