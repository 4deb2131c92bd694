// Package strcase converts identifiers between common casing conventions.
package strcase

import "strings"

// Snake converts a string to snake_case, e.g. for use as a struct tag default or a SQL identifier.
//
// Word boundaries are assumed at each uppercase letter following a lowercase letter or digit, and at
// each transition from multiple uppercase letters to a lowercase one (so "HTTPServer" becomes "http_server").
func Snake(s string) string {
	return delimit(s, '_', strings.ToLower)
}

// ScreamingSnake converts a string to SCREAMING_SNAKE_CASE, e.g. for use as a journald field name.
func ScreamingSnake(s string) string {
	return delimit(s, '_', strings.ToUpper)
}

func delimit(s string, sep byte, fold func(string) string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	runes := []rune(s)

	for i, r := range runes {
		if i > 0 && isBoundary(runes, i) {
			b.WriteByte(sep)
		}
		b.WriteRune(r)
	}

	return fold(b.String())
}

func isBoundary(runes []rune, i int) bool {
	prev := runes[i-1]
	cur := runes[i]

	if isUpper(cur) && (isLower(prev) || isDigit(prev)) {
		return true
	}

	if isUpper(cur) && isUpper(prev) && i+1 < len(runes) && isLower(runes[i+1]) {
		return true
	}

	return false
}

func isUpper(r rune) bool { return 'A' <= r && r <= 'Z' }
func isLower(r rune) bool { return 'a' <= r && r <= 'z' }
func isDigit(r rune) bool { return '0' <= r && r <= '9' }
