// Package naming derives generated identifiers from declared type and field
// names. Every function is a pure function of its inputs so generated type
// names stay deterministic.
package naming

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	upper = cases.Upper(language.Und)
	lower = cases.Lower(language.Und)
)

// Normalize returns the NFC form of a declared identifier or description.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// UpperFirst upper-cases the first rune and leaves the rest untouched:
// "actedIn" becomes "ActedIn".
func UpperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return upper.String(string(r)) + s[size:]
}

// LowerFirst lower-cases the first rune and leaves the rest untouched.
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return lower.String(string(r)) + s[size:]
}

// Pluralize returns a simple English plural of a type name. Consonant+y
// becomes -ies, sibilant endings take -es, and "ies"/"series" endings are
// left alone.
func Pluralize(s string) string {
	if s == "" {
		return s
	}
	l := strings.ToLower(s)
	switch {
	case strings.HasSuffix(l, "ies"), strings.HasSuffix(l, "series"):
		return s
	case strings.HasSuffix(l, "y") && len(l) > 1 && !isVowel(l[len(l)-2]):
		return s[:len(s)-1] + "ies"
	case strings.HasSuffix(l, "s"), strings.HasSuffix(l, "x"), strings.HasSuffix(l, "z"),
		strings.HasSuffix(l, "ch"), strings.HasSuffix(l, "sh"):
		return s + "es"
	default:
		return s + "s"
	}
}

func isVowel(b byte) bool {
	switch b {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// Plural is the root-field plural for an entity: lower-first, pluralized.
// "Movie" becomes "movies".
func Plural(entity string) string {
	return LowerFirst(Pluralize(entity))
}

// Join concatenates parts, upper-casing the first rune of each part after
// the first: Join("Movie", "actors", "Connection") is "MovieActorsConnection".
func Join(parts ...string) string {
	var b strings.Builder
	for i, p := range parts {
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(UpperFirst(p))
	}
	return b.String()
}
