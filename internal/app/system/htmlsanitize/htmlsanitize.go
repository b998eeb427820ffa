// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag and attribute. Titles and descriptions are stored
// as plain text and rendered by clients, never as markup.
var strict = bluemonday.StrictPolicy()

// PlainText strips all markup from s and returns the remaining text with
// entities decoded and surrounding whitespace trimmed.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
