package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer = bluemonday.UGCPolicy()
	stripper  = bluemonday.StrictPolicy()
)

// Sanitize strips markup outside the user-generated-content allow list. Use it for rich content only.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// PlainText removes every tag and returns the remaining text literally, unescaped and trimmed.
// Plain-text fields are stored as typed; escaping happens wherever they are rendered as HTML.
func PlainText(input string) string {
	return strings.TrimSpace(html.UnescapeString(stripper.Sanitize(input)))
}
