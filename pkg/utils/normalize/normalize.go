package normalize

import (
	"html"
	"regexp"
	"strings"
)

var (
	nbspPattern       = regexp.MustCompile(`\x{00a0}+`)
	nbspEntityPattern = regexp.MustCompile(`&nbsp;+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Text strips HTML entities and whitespace noise from raw page content.
// The result is stable for identical input, which matters because the
// content hash used for session deduplication is computed over it.
func Text(s string) string {
	s = html.UnescapeString(s)
	s = nbspPattern.ReplaceAllString(s, " ")
	s = nbspEntityPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
