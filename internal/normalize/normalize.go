// Package normalize turns free-text labels scraped from storefront pages into
// canonical, comparison-safe keys.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Text lower-cases s, strips diacritic marks and collapses whitespace runs
// into single spaces. It never fails; undecodable input is kept as is.
func Text(s string) string {
	s = strings.ToLower(s)

	// transform.Chain keeps state, so a fresh chain is built per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}

	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Key is Text with every run of non-alphanumeric characters replaced by a
// single underscore, without leading or trailing underscores. It is used for
// category and document identifiers.
func Key(s string) string {
	var b strings.Builder
	pending := false

	for _, r := range Text(s) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pending = true
			continue
		}
		if pending && b.Len() > 0 {
			b.WriteByte('_')
		}
		pending = false
		b.WriteRune(r)
	}

	return b.String()
}

// KeyAny applies Key to strings and returns any other value unchanged.
func KeyAny(v any) any {
	if s, ok := v.(string); ok {
		return Key(s)
	}
	return v
}

// GroupKey is Text with naive singularization: one trailing "s" is removed.
// Only the "s" is removed from words ending in "es". Words ending in "ss" and
// a lone trailing "s" are kept so the result stays stable when applied again.
func GroupKey(s string) string {
	t := Text(s)
	if !strings.HasSuffix(t, "s") {
		return t
	}

	stem := t[:len(t)-1]
	last, _ := utf8.DecodeLastRuneInString(stem)
	if !unicode.IsLetter(last) || last == 's' {
		return t
	}
	return stem
}

// OptionLabel canonicalizes an option label for the normalized layer.
func OptionLabel(s string) string {
	return Text(s)
}
