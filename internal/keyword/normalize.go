package keyword

import (
	"strings"
	"unicode"
)

const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Normalize lowercases text, turns ASCII punctuation into spaces and
// collapses whitespace runs, so "Carbon--Dioxide!" becomes "carbon dioxide".
// Total function: any input, including empty, yields a valid result.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r) || (r < 128 && strings.ContainsRune(asciiPunct, r)):
			space = true
		default:
			if space && b.Len() > 0 {
				b.WriteRune(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
