// Package util provides small string helpers shared by the reader and the server.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

	// Letters with no canonical decomposition, so NFKD leaves them whole.
	ligatures = strings.NewReplacer(
		"ß", "ss", "ẞ", "ss",
		"æ", "ae", "Æ", "ae",
		"œ", "oe", "Œ", "oe",
		"ø", "o", "Ø", "o",
		"ł", "l", "Ł", "l",
		"đ", "d", "Đ", "d",
		"þ", "th", "Þ", "th",
	)
)

// Slugify turns a file or book title into a stable lowercase identifier.
// Accented letters are decomposed and reduced to their ASCII base, every run of
// anything else becomes a single dash, and leading or trailing dashes are dropped.
//
//	"The Name of the Wind (2007)" -> "the-name-of-the-wind-2007"
//	"Saga_Vol.01"                 -> "saga-vol-01"
//	"Dvořák Symphonies"           -> "dvorak-symphonies"
func Slugify(input string) string {
	s := norm.NFKD.String(ligatures.Replace(input))

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = nonSlugRun.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}
