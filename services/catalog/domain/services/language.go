// Package services contains stateless domain services for the catalog bounded
// context. They operate purely on domain types with zero infrastructure
// dependencies.
package services

import (
	_ "embed"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//go:embed bannedwords.txt
var bannedWordsFile string

// leetMap undoes common character substitutions used to sneak words past
// naive filters.
var leetMap = map[string]string{
	"0": "o", "1": "i", "3": "e", "4": "a",
	"5": "s", "7": "t", "@": "a", "$": "s",
}

var (
	nonLetters = regexp.MustCompile(`[^a-z\s]`)
	spaceRuns  = regexp.MustCompile(`\s+`)
)

// LanguageScreen rejects titles containing banned language. The default word
// list ships embedded; deployments extend it via AddWords.
type LanguageScreen struct {
	banned map[string]struct{}
}

// NewLanguageScreen builds a screen from the embedded word list.
func NewLanguageScreen() *LanguageScreen {
	s := &LanguageScreen{banned: make(map[string]struct{})}
	for _, line := range strings.Split(bannedWordsFile, "\n") {
		word := strings.ToLower(strings.TrimSpace(line))
		if word != "" && !strings.HasPrefix(word, "#") {
			s.banned[word] = struct{}{}
		}
	}
	return s
}

// AddWords extends the banned list (e.g. from operator config).
func (s *LanguageScreen) AddWords(words ...string) {
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			s.banned[w] = struct{}{}
		}
	}
}

// ContainsBannedLanguage reports whether text matches a banned word after
// normalization, by exact token or substring (substrings catch compounds).
func (s *LanguageScreen) ContainsBannedLanguage(text string) bool {
	normalized := Normalize(text)

	for _, token := range strings.Split(normalized, " ") {
		if _, ok := s.banned[token]; ok {
			return true
		}
	}

	for banned := range s.banned {
		if strings.Contains(normalized, banned) {
			return true
		}
	}
	return false
}

// deaccent decomposes text (NFKD) and drops combining marks, so "crème"
// normalizes to "creme" instead of splitting at the accent.
var deaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases text, strips accents, reverses leetspeak
// substitutions, and collapses everything but letters and single spaces.
func Normalize(text string) string {
	text = strings.ToLower(text)
	if stripped, _, err := transform.String(deaccent, text); err == nil {
		text = stripped
	}

	for k, v := range leetMap {
		text = strings.ReplaceAll(text, k, v)
	}

	text = nonLetters.ReplaceAllString(text, " ")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
