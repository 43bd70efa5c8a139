// Package person normalizes and displays person names.
package person

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize folds a name to the lowercase form the fact base stores.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Capitalize renders a name for display: first letter upper case, the rest
// lower case ("thabo" → "Thabo", "mCDONALD" → "Mcdonald").
func Capitalize(name string) string {
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + strings.ToLower(name[size:])
}
