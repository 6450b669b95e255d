package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks while keeping safe markup.
func Sanitize(input string) string {
	return strings.TrimSpace(richPolicy.Sanitize(input))
}

// SanitizePlain strips all markup, for free-text fields such as check-in notes.
func SanitizePlain(input string) string {
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(input)))
}
