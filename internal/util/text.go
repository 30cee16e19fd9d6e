package util

import (
	"strings"
	"unicode"
)

// SanitizePostgresText drops invalid UTF-8 and NUL bytes, which Postgres
// text columns reject.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// CleanName sanitizes a display name and collapses runs of whitespace.
func CleanName(value string) string {
	return strings.Join(strings.FieldsFunc(SanitizePostgresText(value), unicode.IsSpace), " ")
}

// NormalizeEmail sanitizes and lower-cases an address so that uniqueness is
// case-insensitive.
func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(SanitizePostgresText(value)))
}
