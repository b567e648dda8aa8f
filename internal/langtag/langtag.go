// Package langtag normalizes the language codes found in TMX files. Real
// memories mix spellings freely ("EN-us", "en_US", "de"), and comparisons
// must not depend on which tool wrote the file.
package langtag

import "golang.org/x/text/language"

// Canonical returns the BCP 47 canonical form of a language code. ok is
// false when the code does not parse as a language tag at all.
func Canonical(code string) (string, bool) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}
	return tag.String(), true
}

// Equal reports whether two codes name the same tag once canonicalized.
// Codes that do not parse only equal themselves verbatim.
func Equal(a, b string) bool {
	ca, oka := Canonical(a)
	cb, okb := Canonical(b)
	if !oka || !okb {
		return a == b
	}
	return ca == cb
}
