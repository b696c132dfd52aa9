package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// minSaltLength is the shortest LOG_HASH_SALT accepted by InitHashSalt.
const minSaltLength = 32

var hashSalt string

// InitHashSalt loads LOG_HASH_SALT. It panics when the salt is missing or
// shorter than 32 characters, since hashed ids would then be guessable.
func InitHashSalt() {
	salt := os.Getenv("LOG_HASH_SALT")
	if salt == "" {
		panic("LOG_HASH_SALT environment variable is required")
	}
	if len(salt) < minSaltLength {
		panic(fmt.Sprintf("LOG_HASH_SALT must be at least %d characters", minSaltLength))
	}
	hashSalt = salt
}

// InitHashSaltForTesting sets the salt without validation.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

func shortHash(value string) string {
	hash := sha256.Sum256([]byte(value + ":" + hashSalt))
	// First 8 hex characters are enough to correlate log lines.
	return hex.EncodeToString(hash[:])[:8]
}

// HashUserID creates a privacy-preserving hash of a Telegram user ID.
func HashUserID(userID int64) string {
	return shortHash(fmt.Sprintf("%d", userID))
}

// HashChatID creates a privacy-preserving hash of a chat ID.
func HashChatID(chatID int64) string {
	return shortHash(fmt.Sprintf("%d", chatID))
}

// HashAccountID hashes a member account id from the web gateway.
func HashAccountID(accountID string) string {
	if accountID == "" {
		return "<anonymous>"
	}
	return shortHash("acct:" + accountID)
}

// HashEmail hashes an email address, keeping only the domain readable.
func HashEmail(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return shortHash("mail:" + email)
	}
	return shortHash("mail:"+strings.ToLower(email)) + "@" + domain
}

// SanitizeText is a general-purpose sanitizer for any user-provided text.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	if len(text) <= 10 {
		return fmt.Sprintf("<%d chars>", len(text))
	}

	return fmt.Sprintf("%s...<%d chars>", text[:3], len(text))
}

// SanitizeImport summarizes a pasted import body without its content.
func SanitizeImport(text string) string {
	if text == "" {
		return "<empty>"
	}
	lines := strings.Count(text, "\n") + 1
	return fmt.Sprintf("<redacted: %d lines, %d chars>", lines, len(text))
}
