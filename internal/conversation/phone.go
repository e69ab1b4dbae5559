package conversation

import (
	"strings"
	"unicode"
)

// NormalizePhone converts a Tanzanian mobile number to the 255XXXXXXXXX form the gateway expects.
// It accepts 0XXXXXXXXX, +255XXXXXXXXX, 255XXXXXXXXX and the bare 9-digit subscriber number.
func NormalizePhone(raw string) (string, bool) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", false
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		digits = "255" + digits[1:]
	case len(digits) == 9:
		digits = "255" + digits
	}

	if len(digits) != 12 || !strings.HasPrefix(digits, "255") {
		return "", false
	}
	if digits[3] != '6' && digits[3] != '7' {
		return "", false
	}
	return digits, true
}
