package repair

import "regexp"

var (
	bulletLine   = regexp.MustCompile(`(?m)^\s*\*`)
	numberedLine = regexp.MustCompile(`(?m)^\s*(\d+)\.`)
)

// FormatInstructions turns markdown bullets into "•" and strips indentation in
// front of numbered steps. The result is plain text meant for a <pre> block.
func FormatInstructions(text string) string {
	text = bulletLine.ReplaceAllString(text, "•")
	return numberedLine.ReplaceAllString(text, "${1}.")
}
