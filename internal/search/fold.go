package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold normalizes a string for diacritic-insensitive matching: decompose,
// drop combining marks, fold the đ/Đ grapheme (not covered by NFD) to plain
// d/D, then lowercase. "Cà Phê Sữa" -> "ca phe sua".
//
// The transform chain carries internal buffers, so it is built per call;
// a shared instance would race between concurrent list and report reads.
func Fold(s string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	out = strings.ReplaceAll(out, "đ", "d")
	out = strings.ReplaceAll(out, "Đ", "D")
	return strings.ToLower(out)
}

// Contains reports whether haystack contains needle after folding both.
func Contains(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}
