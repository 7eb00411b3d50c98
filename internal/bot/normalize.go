package bot

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize lowercases and accent-strips text for command matching,
// so "Família" and "familia" hit the same handler. Free text shown
// back to the user must come from the original message, never from
// this.
func Normalize(s string) string {
	out, _, err := transform.String(stripAccents, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

// hasCommand reports whether the normalized text starts with the
// keyword, with or without a leading slash.
func hasCommand(norm, keyword string) bool {
	return strings.HasPrefix(norm, keyword) || strings.HasPrefix(norm, "/"+keyword)
}
