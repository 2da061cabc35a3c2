package story

import (
	"regexp"
	"strings"
)

var (
	openingFence = regexp.MustCompile("^\\s*```[\\w-]*")
	closingFence = regexp.MustCompile("```\\s*$")
)

// StripFences removes a leading ```lang marker and a trailing ``` marker
// that models wrap JSON responses in. Text without fences is only trimmed.
func StripFences(s string) string {
	s = openingFence.ReplaceAllString(s, "")
	s = closingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
