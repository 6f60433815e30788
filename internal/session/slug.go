package session

import (
	"strings"
	"unicode"
)

// Slugify reduces a video name to a directory-safe slug: only letters,
// digits, spaces, hyphens and underscores survive, trailing space is
// trimmed, spaces become underscores and the result is capped at maxLen
// runes. An empty result falls back to "video".
func Slugify(name string, maxLen int) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}

	cleaned := strings.TrimRight(b.String(), " ")
	cleaned = strings.ReplaceAll(cleaned, " ", "_")

	runes := []rune(cleaned)
	if maxLen > 0 && len(runes) > maxLen {
		cleaned = string(runes[:maxLen])
	}

	if cleaned == "" {
		return "video"
	}
	return cleaned
}
