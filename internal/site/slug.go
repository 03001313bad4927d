package site

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify turns a display name into a filesystem and URL safe file stem.
// Diacritics are stripped, letters lowered, and runs of anything else
// collapse to a single dash. Letters outside ASCII survive, so non-Latin
// tags keep readable file names.
func Slugify(s string) string {
	if out, _, err := transform.String(deaccent, s); err == nil {
		s = out
	}

	var b strings.Builder
	dash := true // swallow leading separators
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteRune('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
