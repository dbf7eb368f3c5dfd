package security

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	htmlPolicy = bluemonday.StrictPolicy()
	nameRegex  = regexp.MustCompile(`^[\p{L}\p{N} ._'()&+-]{1,100}$`)
)

// SanitizeString removes potentially dangerous characters from free-form
// user input.
func SanitizeString(input string) string {
	// Trim whitespace
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Limit length
	if len(input) > 1000 {
		input = input[:1000]
	}

	return input
}

// SanitizeHTML removes all HTML tags. Scraped tracker text and player-facing
// descriptions go through this before storage.
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// ValidateName checks a world or slot name against the allowed character set.
func ValidateName(name string) bool {
	return nameRegex.MatchString(name)
}
