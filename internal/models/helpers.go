// Package models defines the service records that flow through the corpus
// pipeline, plus the helpers shared by its stages.
package models

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugStripRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugCollapseRe = regexp.MustCompile(`[-\s]+`)
)

// Slugify derives a filesystem-safe identifier from a title: lowercase,
// diacritics folded, characters outside word/space/hyphen stripped, runs of
// whitespace and hyphens collapsed to one hyphen, outer hyphens trimmed.
// The result is NFC so that stripping cannot leave sequences that compose
// differently on a second pass.
//
// "Carta d'Identità" -> "carta-didentita"
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = FoldDiacritics(s)
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugCollapseRe.ReplaceAllString(s, "-")
	return norm.NFC.String(strings.Trim(s, "-"))
}

// FoldDiacritics strips combining marks: "Identità" -> "Identita".
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Truncate caps s at n characters (runes, not bytes). n <= 0 means no cap.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// NormalizeSpace trims s and collapses every whitespace run to one space,
// approximating how a browser lays out inline text.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
