package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidateComment checks that a decision comment carries at least minLen
// characters of actual content. The length floor is a business rule, not
// incidental validation.
func ValidateComment(comment string, minLen int) error {
	if len(strings.TrimSpace(comment)) < minLen {
		return fmt.Errorf("comments must be at least %d characters", minLen)
	}
	return nil
}

// ValidateAmount validates a monetary amount field
func ValidateAmount(amount float64) error {
	if amount < 0 {
		return fmt.Errorf("amount must not be negative: %.2f", amount)
	}
	return nil
}

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeString strips control characters from free-text input
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
