package util

import (
	"strings"
)

// ExtractMentions extracts @username mentions from text content
// Returns a slice of unique usernames (lowercase, without @ symbol)
func ExtractMentions(content string) []string {
	var mentions []string
	words := strings.Fields(content)
	seen := make(map[string]bool)

	for _, word := range words {
		if strings.HasPrefix(word, "@") && len(word) > 1 {
			// Clean the username (remove trailing punctuation)
			username := strings.TrimPrefix(word, "@")
			username = strings.TrimRight(username, ".,!?;:")
			username = strings.ToLower(username)

			if !seen[username] && len(username) >= 3 && len(username) <= 30 {
				seen[username] = true
				mentions = append(mentions, username)
			}
		}
	}
	return mentions
}

// NormalizeCourseCode uppercases a course code and strips internal whitespace
// so "cs 212" and "CS212" resolve to the same code.
func NormalizeCourseCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.ReplaceAll(code, " ", "")
}

// TruncateText shortens text to maxLen runes, appending an ellipsis when cut.
func TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
