// Package sanitize normalizes consumer-supplied free text before it is stored.
package sanitize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxAnswerLength bounds a single stored answer, in runes.
const MaxAnswerLength = 4000

// Answer keeps the consumer's text as typed, markup included. It drops
// invalid UTF-8 and control characters other than newlines and tabs, and
// truncates to MaxAnswerLength runes. Output is escaped by the renderer.
func Answer(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var b strings.Builder
	b.Grow(len(s))
	n := 0
	for _, r := range s {
		if n == MaxAnswerLength {
			break
		}
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
