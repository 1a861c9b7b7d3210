package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize drops control characters and collapses every run of
// whitespace to a single space.
func TrimAndNormalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeName is used for room and user names, which are shown in lists
// and sorted on, so casing is kept but spacing is not.
func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
