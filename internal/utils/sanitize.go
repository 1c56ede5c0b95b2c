package utils

import (
	"html"    // Entity decoding
	"strings" // String manipulation

	"github.com/microcosm-cc/bluemonday" // HTML sanitizer
)

var htmlPolicy = bluemonday.StrictPolicy()

// SanitizeText strips markup and control bytes from user supplied text and caps its length.
// The policy output is entity-decoded so plain text is stored as typed.
func SanitizeText(input string, maxLen int) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(html.UnescapeString(htmlPolicy.Sanitize(input)))
	if maxLen > 0 {
		if r := []rune(input); len(r) > maxLen {
			input = strings.TrimSpace(string(r[:maxLen]))
		}
	}
	return input
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
