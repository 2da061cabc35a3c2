package story

import (
	"regexp"
	"strings"
)

// ws matches any whitespace except a newline, so line-anchored patterns keep
// matching after strings.TrimSpace strips the text's edges.
const ws = `[\t\v\f\r\x{85}\p{Z}]*`

var (
	separatorLine = regexp.MustCompile(`(?m)^` + ws + `\*+` + ws + `$`)
	boldLine      = regexp.MustCompile(`(?m)^` + ws + `\*\*([^*\n]+)\*\*` + ws + `$`)
	blankRun      = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans model-generated or uploaded story text: separator lines made
// only of asterisks are dropped, whole-line **bold** markers are unwrapped,
// runs of three or more newlines collapse to two and the result is trimmed.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(text string) string {
	text = separatorLine.ReplaceAllString(text, "")
	text = boldLine.ReplaceAllString(text, "$1")
	text = blankRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
