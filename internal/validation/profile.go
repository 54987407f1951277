package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidateName validates the display name
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("name is required")
	}

	if len(trimmed) > 100 {
		return errors.New("name is too long (max 100 characters)")
	}

	return nil
}

// Required returns an error naming the first empty field.
// Pairs are given as label, value.
func Required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%s is required", pairs[i])
		}
	}
	return nil
}

// ValidateDate accepts an empty string or an ISO date (2006-01-02).
func ValidateDate(label, value string) error {
	if value == "" {
		return nil
	}
	_, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return fmt.Errorf("%s must be a date in YYYY-MM-DD format", label)
	}
	return nil
}
