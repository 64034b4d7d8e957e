// Package utils provides common utility functions.
package utils

import (
	"strings"
	"unicode"
)

// missingSentinels are cell values that spreadsheet exports use for "no value".
var missingSentinels = map[string]struct{}{
	"nan":  {},
	"NaN":  {},
	"None": {},
	"null": {},
	"NULL": {},
}

// StringHelper provides string utility functions.
type StringHelper struct{}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{}
}

// TrimWhitespace removes leading and trailing whitespace.
func (s *StringHelper) TrimWhitespace(str string) string {
	return strings.TrimSpace(str)
}

// NormalizeWhitespace replaces multiple whitespace with single space.
func (s *StringHelper) NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// CleanCell trims a cell and blanks missing-value sentinels.
func (s *StringHelper) CleanCell(str string) string {
	str = s.TrimWhitespace(str)
	if IsMissing(str) {
		return ""
	}

	return str
}

// IsMissing reports whether a trimmed cell carries no value.
func IsMissing(str string) bool {
	if str == "" {
		return true
	}

	_, ok := missingSentinels[str]

	return ok
}

// DigitsOnly drops every character that is not an ASCII digit.
func DigitsOnly(str string) string {
	var b strings.Builder

	b.Grow(len(str))

	for _, r := range str {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// FirstDigit returns the first decimal digit in str and whether one was found.
func FirstDigit(str string) (rune, bool) {
	for _, r := range str {
		if unicode.IsDigit(r) && r <= unicode.MaxASCII {
			return r, true
		}
	}

	return 0, false
}
