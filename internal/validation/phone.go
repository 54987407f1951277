package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ValidatePhone accepts an optional leading "+" followed by 8 to 15 digits.
// Spaces, dashes and parentheses are ignored.
func ValidatePhone(phone string) error {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return errors.New("phone is required")
	}

	digits := 0
	for i, r := range trimmed {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return errors.New("phone may only contain digits, spaces and dashes")
		}
	}

	if digits < 8 || digits > 15 {
		return errors.New("phone must have between 8 and 15 digits")
	}
	return nil
}
