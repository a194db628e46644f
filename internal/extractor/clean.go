package extractor

import (
	"regexp"
	"strings"
)

var (
	controlWhitespace = regexp.MustCompile(`[\n\r\t\x08]`)
	whitespaceRun     = regexp.MustCompile(`[\s\v\x1c-\x1f\p{Z}\x{85}]+`)
)

// CleanText replaces newlines, carriage returns, tabs and backspaces with a
// space, collapses whitespace runs to one space and trims the ends. The
// information separators U+001C to U+001F count as whitespace.
// CleanText(CleanText(s)) == CleanText(s) for every s.
func CleanText(s string) string {
	s = controlWhitespace.ReplaceAllString(s, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
