package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFold decomposes accented characters and strips the combining marks,
// so "Café Noël" slugs the same as "Cafe Noel".
var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify reduces text to a lowercase ascii dash-separated slug. Empty
// results fall back to "event" so a UID base always exists.
func Slugify(s string) string {
	if folded, _, err := transform.String(asciiFold, s); err == nil {
		s = folded
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "event"
	}
	return slug
}
