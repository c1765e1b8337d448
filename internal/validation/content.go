package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MessageContent trims a chat message and checks its length in characters.
func MessageContent(content string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", fmt.Errorf("message content cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return "", fmt.Errorf("message content must not exceed %d characters", maxLen)
	}
	return trimmed, nil
}
