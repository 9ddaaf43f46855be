package utils

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var titlePolicy = bluemonday.StrictPolicy()

// SanitizeTitle strips markup from a page title and truncates it to
// MaxTitleLength runes. Titles end up in native chrome, so only plain
// text survives.
func SanitizeTitle(title string) string {
	clean := html.UnescapeString(titlePolicy.Sanitize(title))
	clean = strings.Join(strings.Fields(clean), " ")

	if utf8.RuneCountInString(clean) > MaxTitleLength {
		runes := []rune(clean)
		clean = string(runes[:MaxTitleLength])
	}
	return clean
}
