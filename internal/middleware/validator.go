package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

var (
	tenantPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	uuidPattern   = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)
)

// ValidateTenantID validates tenant ID format
func ValidateTenantID(tenant string) error {
	if tenant == "" {
		return fmt.Errorf("tenant ID cannot be empty")
	}
	if !tenantPattern.MatchString(tenant) {
		return fmt.Errorf("invalid tenant ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateCheckID validates check ID format (UUID)
func ValidateCheckID(checkID string) error {
	if checkID == "" {
		return fmt.Errorf("check ID cannot be empty")
	}
	if !uuidPattern.MatchString(checkID) {
		return fmt.Errorf("invalid check ID format")
	}
	return nil
}

// SanitizeString removes null bytes and control characters
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// ValidateDays validates days parameter
func ValidateDays(days int) int {
	if days <= 0 {
		return 7
	}
	if days > 365 {
		return 365
	}
	return days
}
