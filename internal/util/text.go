package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var reSpaces = regexp.MustCompile(`\s+`)

// NormalizeTitle folds a free-text title to NFKC lower case with single spaces.
func NormalizeTitle(input string) string {
	s := norm.NFKC.String(input)
	s = strings.ToLower(s)
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokenize splits a title into runs of letters, digits and underscores and
// keeps those with at least minLen runes.
func Tokenize(input string, minLen int) []string {
	parts := strings.FieldsFunc(NormalizeTitle(input), func(r rune) bool {
		return !isWordRune(r)
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len([]rune(p)) >= minLen {
			out = append(out, p)
		}
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// SanitizeFileName makes a value safe to embed in an output file name.
func SanitizeFileName(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
