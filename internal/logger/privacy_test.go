package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	InitHashSaltForTesting("test-salt-for-unit-tests-minimum-32-chars")
	os.Exit(m.Run())
}

func TestHashUserID(t *testing.T) {
	t.Run("produces consistent hash for same user ID", func(t *testing.T) {
		require.Equal(t, HashUserID(12345), HashUserID(12345))
	})

	t.Run("produces different hashes for different user IDs", func(t *testing.T) {
		require.NotEqual(t, HashUserID(12345), HashUserID(67890))
	})

	t.Run("produces 8 character hash", func(t *testing.T) {
		require.Len(t, HashUserID(12345), 8)
	})

	t.Run("changes hash when salt changes", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		hash1 := HashUserID(12345)
		hashSalt = "different-salt"
		hash2 := HashUserID(12345)

		require.NotEqual(t, hash1, hash2)
	})
}

func TestHashChatID(t *testing.T) {
	t.Run("produces consistent hash for same chat ID", func(t *testing.T) {
		require.Equal(t, HashChatID(-100123), HashChatID(-100123))
	})

	t.Run("shares the user id hash space", func(t *testing.T) {
		require.Equal(t, HashUserID(42), HashChatID(42))
	})
}

func TestHashAccountID(t *testing.T) {
	t.Run("anonymous for empty id", func(t *testing.T) {
		require.Equal(t, "<anonymous>", HashAccountID(""))
	})

	t.Run("stable and short", func(t *testing.T) {
		h := HashAccountID("8c6f1f0e-4a4b-4b1b-9d43-1d2c3b4a5e6f")
		require.Len(t, h, 8)
		require.Equal(t, h, HashAccountID("8c6f1f0e-4a4b-4b1b-9d43-1d2c3b4a5e6f"))
		require.NotContains(t, h, "8c6f1f0e")
	})
}

func TestHashEmail(t *testing.T) {
	t.Run("keeps domain", func(t *testing.T) {
		h := HashEmail("Maria@example.com")
		require.Contains(t, h, "@example.com")
		require.NotContains(t, h, "Maria")
		require.Equal(t, h, HashEmail("maria@example.com"))
	})

	t.Run("hashes malformed address whole", func(t *testing.T) {
		require.Len(t, HashEmail("not-an-email"), 8)
	})
}

func TestSanitizeText(t *testing.T) {
	t.Run("redacts empty text", func(t *testing.T) {
		require.Equal(t, "<empty>", SanitizeText(""))
	})

	t.Run("shows length for short text", func(t *testing.T) {
		require.Equal(t, "<5 chars>", SanitizeText("short"))
	})

	t.Run("shows prefix for longer text", func(t *testing.T) {
		result := SanitizeText("this is a long text")
		require.Contains(t, result, "thi...")
		require.Contains(t, result, "19 chars")
	})
}

func TestSanitizeImport(t *testing.T) {
	t.Run("redacts empty body", func(t *testing.T) {
		require.Equal(t, "<empty>", SanitizeImport(""))
	})

	t.Run("reports lines and size only", func(t *testing.T) {
		result := SanitizeImport("🖥 NETFLIX\n🏦 R$ 20,00")
		require.Contains(t, result, "2 lines")
		require.NotContains(t, result, "NETFLIX")
	})
}

func TestInitHashSalt(t *testing.T) {
	t.Run("panics when LOG_HASH_SALT is missing", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		t.Setenv("LOG_HASH_SALT", "")

		require.Panics(t, func() {
			InitHashSalt()
		})
	})

	t.Run("panics when LOG_HASH_SALT is too short", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		t.Setenv("LOG_HASH_SALT", "short")

		require.Panics(t, func() {
			InitHashSalt()
		})
	})

	t.Run("succeeds with valid LOG_HASH_SALT", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		validSalt := "this-is-a-valid-salt-with-at-least-32-characters"
		t.Setenv("LOG_HASH_SALT", validSalt)

		require.NotPanics(t, func() {
			InitHashSalt()
		})
		require.Equal(t, validSalt, hashSalt)
	})
}
