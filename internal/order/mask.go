// AngelaMos | 2026
// mask.go

package order

import (
	"strings"
	"unicode/utf8"
)

const maxEmailStars = 3

// MaskEmail keeps the first character of the local part and the whole
// domain: "jon@example.com" becomes "j**@example.com".
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}

	local, domain, found := strings.Cut(email, "@")
	first, size := utf8.DecodeRuneInString(local)
	if size == 0 {
		first = '*'
	}

	stars := min(utf8.RuneCountInString(local)-1, maxEmailStars)
	masked := string(first) + strings.Repeat("*", max(stars, 0))
	if !found {
		return masked
	}
	return masked + "@" + domain
}

// MaskPhone shows only the last four characters.
func MaskPhone(phone string) string {
	runes := []rune(phone)
	if len(runes) > 4 {
		runes = runes[len(runes)-4:]
	}
	return "*****" + string(runes)
}
