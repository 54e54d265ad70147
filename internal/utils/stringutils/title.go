package stringutils

import (
	"regexp"
	"strings"
)

// TurnTitleMaxLen bounds the derived per-turn title.
const TurnTitleMaxLen = 50

var multiSpacePattern = regexp.MustCompile(`\s+`)

// TurnTitle derives a short title from a user prompt: whitespace is
// collapsed, and the result is cut at TurnTitleMaxLen, preferring a word
// boundary when one falls in the second half of the limit.
func TurnTitle(prompt string) string {
	title := multiSpacePattern.ReplaceAllString(strings.TrimSpace(prompt), " ")
	return Truncate(title, TurnTitleMaxLen)
}

// Truncate cuts s to at most maxLen bytes, breaking at a word boundary when
// possible.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	cut := s[:maxLen]
	if lastSpace := strings.LastIndex(cut, " "); lastSpace > maxLen/2 {
		cut = strings.TrimRight(cut[:lastSpace], " ")
	}
	return cut
}
