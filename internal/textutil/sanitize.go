package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CollapseSpaces replaces every run of horizontal whitespace inside a line
// with a single space and trims the ends. Newlines are not touched.
func CollapseSpaces(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

// Truncate shortens value to at most limit runes. When truncation happens the
// suffix is appended and counted against the limit.
func Truncate(value string, limit int, suffix string) string {
	if limit <= 0 || utf8.RuneCountInString(value) <= limit {
		return value
	}
	keep := limit - utf8.RuneCountInString(suffix)
	if keep <= 0 {
		return string([]rune(suffix)[:limit])
	}
	runes := []rune(value)
	return strings.TrimRightFunc(string(runes[:keep]), unicode.IsSpace) + suffix
}

// UpperFirst upper-cases the first rune of value.
func UpperFirst(value string) string {
	r, size := utf8.DecodeRuneInString(value)
	if r == utf8.RuneError {
		return value
	}
	return string(unicode.ToUpper(r)) + value[size:]
}
