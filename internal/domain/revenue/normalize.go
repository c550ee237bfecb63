package revenue

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// polishFold maps Polish letters that are standalone code points rather than
// base-letter + combining-mark compositions. NFD decomposition does not touch
// these, so they need an explicit table.
var polishFold = strings.NewReplacer(
	"ł", "l",
	"Ł", "L",
)

// NormalizeName produces a stable comparison key for free-text names:
// diacritics stripped, lowercased, whitespace collapsed to single spaces.
// Two names that differ only in case, accents or spacing normalize to the
// same key.
func NormalizeName(s string) string {
	s = polishFold.Replace(s)

	// NFD splits accented letters into base letter + combining mark,
	// then the marks are removed.
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(stripper, s); err == nil {
		s = out
	}

	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
