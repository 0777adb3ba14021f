// Package phone normalizes user-entered phone numbers to E.164.
package phone

import (
	"strings"
	"unicode"
)

// Clean removes whitespace and hyphens from raw input.
func Clean(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '－' {
			return -1
		}
		return r
	}, raw)
}

// ToE164 renders a cleaned number in E.164. Numbers starting with "+" are
// returned unchanged; anything else is treated as domestic: a single leading
// trunk "0" is dropped and "+" plus countryCode is prefixed.
func ToE164(number, countryCode string) string {
	number = Clean(number)
	if number == "" || strings.HasPrefix(number, "+") {
		return number
	}
	return "+" + strings.TrimPrefix(countryCode, "+") + strings.TrimPrefix(number, "0")
}
