package seating

import (
	"strings"
	"unicode"
)

// NormalizeKey lowercases name and strips all whitespace. Every category or
// section name must pass through it before being used as a lookup key.
func NormalizeKey(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToLower(name))
}
