package gemini

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MaxPromptTextLength caps user text embedded in a prompt.
const MaxPromptTextLength = 2000

// SanitizeForPrompt strips characters that could break prompt structure and
// truncates to maxLength bytes.
func SanitizeForPrompt(input string, maxLength int) string {
	input = strings.ReplaceAll(input, `"`, `'`)
	input = strings.ReplaceAll(input, "`", "'")
	input = strings.ReplaceAll(input, "\x00", "")

	// Keep line structure, the marker lines matter to the model.
	lines := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	input = strings.Join(kept, "\n")

	if len(input) > maxLength {
		input = strings.TrimSpace(truncateUTF8(input, maxLength))
	}
	return input
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// extractJSON returns the outermost JSON object in text. Gemini sometimes
// wraps it in preamble or a ```json fence even in JSON mode.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(text, "}")
	if end == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// hashText returns a short SHA256 prefix for logging user text.
func hashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:8])
}
