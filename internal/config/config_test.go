package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("WHITELISTED_USER_IDS", "123")
}

func TestLoad(t *testing.T) {
	t.Run("loads all config from env", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "test-token-123")
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("WHITELISTED_USER_IDS", "123")
		t.Setenv("GEMINI_API_KEY", "test-gemini-key")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "test-token-123", cfg.TelegramBotToken)
		require.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		require.Equal(t, "test-gemini-key", cfg.GeminiAPIKey)
	})

	t.Run("applies defaults", func(t *testing.T) {
		setRequired(t)
		for _, key := range []string{
			"HTTP_ADDR", "CODE_PREFIX", "LISTING_TTL_DAYS", "EXPIRY_SWEEP_INTERVAL",
			"SUPPORT_POLL_INTERVAL", "CACHE_TTL", "SMTP_HOST", "SMTP_PORT", "OTEL_EXPORTER",
			"LOG_FORMAT", "TELEGRAM_CHANNEL_ID", "SESSION_SECRET", "CHAT_SEPARATOR",
		} {
			t.Setenv(key, "")
		}

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, ":8080", cfg.HTTPAddr)
		require.Equal(t, "SF", cfg.CodePrefix)
		require.Equal(t, 30*24*time.Hour, cfg.ListingTTL)
		require.Equal(t, time.Hour, cfg.ExpirySweepInterval)
		require.Equal(t, 5*time.Minute, cfg.SupportPollInterval)
		require.Equal(t, 30*time.Second, cfg.CacheTTL)
		require.Equal(t, 587, cfg.SMTP.Port)
		require.False(t, cfg.SMTP.Enabled())
		require.Equal(t, ExporterNone, cfg.OTelExporter)
		require.Equal(t, "console", cfg.LogFormat)
		require.Zero(t, cfg.TelegramChannelID)
		require.Empty(t, cfg.SessionSecret)
		require.Empty(t, cfg.ChatSeparator)
	})

	t.Run("accepts session secret and chat separator", func(t *testing.T) {
		setRequired(t)
		t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("CHAT_SEPARATOR", "📺 Outro Canal")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "0123456789abcdef0123456789abcdef", cfg.SessionSecret)
		require.Equal(t, "📺 Outro Canal", cfg.ChatSeparator)
	})

	t.Run("rejects short session secret", func(t *testing.T) {
		setRequired(t)
		t.Setenv("SESSION_SECRET", "short")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "SESSION_SECRET must be at least 32 characters")
	})

	t.Run("parses marketplace settings", func(t *testing.T) {
		setRequired(t)
		t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
		t.Setenv("CODE_PREFIX", "ab")
		t.Setenv("LISTING_TTL_DAYS", "45")
		t.Setenv("EXPIRY_SWEEP_INTERVAL", "15m")
		t.Setenv("SUPPORT_POLL_INTERVAL", "1m")
		t.Setenv("CACHE_TTL", "2m")
		t.Setenv("TELEGRAM_CHANNEL_ID", "-1001234567890")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
		require.Equal(t, "AB", cfg.CodePrefix)
		require.Equal(t, 45*24*time.Hour, cfg.ListingTTL)
		require.Equal(t, 15*time.Minute, cfg.ExpirySweepInterval)
		require.Equal(t, time.Minute, cfg.SupportPollInterval)
		require.Equal(t, 2*time.Minute, cfg.CacheTTL)
		require.Equal(t, int64(-1001234567890), cfg.TelegramChannelID)
	})

	t.Run("falls back for invalid durations and ttl", func(t *testing.T) {
		setRequired(t)
		t.Setenv("LISTING_TTL_DAYS", "-3")
		t.Setenv("EXPIRY_SWEEP_INTERVAL", "soon")
		t.Setenv("CACHE_TTL", "-1s")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, 30*24*time.Hour, cfg.ListingTTL)
		require.Equal(t, time.Hour, cfg.ExpirySweepInterval)
		require.Equal(t, 30*time.Second, cfg.CacheTTL)
	})

	t.Run("parses smtp settings", func(t *testing.T) {
		setRequired(t)
		t.Setenv("SMTP_HOST", "smtp.example.com")
		t.Setenv("SMTP_PORT", "2525")
		t.Setenv("SMTP_USERNAME", "mailer")
		t.Setenv("SMTP_PASSWORD", "secret")
		t.Setenv("SMTP_FROM", "SubShare <no-reply@example.com>")
		t.Setenv("SUPPORT_EMAIL", "suporte@example.com")

		cfg, err := Load()
		require.NoError(t, err)
		require.True(t, cfg.SMTP.Enabled())
		require.Equal(t, "smtp.example.com:2525", cfg.SMTP.Addr())
		require.Equal(t, "mailer", cfg.SMTP.Username)
		require.Equal(t, "suporte@example.com", cfg.SupportEmail)
	})

	t.Run("ignores out of range smtp port", func(t *testing.T) {
		setRequired(t)
		t.Setenv("SMTP_PORT", "70000")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, 587, cfg.SMTP.Port)
	})

	t.Run("parses whitelisted user IDs", func(t *testing.T) {
		setRequired(t)
		t.Setenv("WHITELISTED_USER_IDS", " 123 , invalid,456,,789, ")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, []int64{123, 456, 789}, cfg.WhitelistedUserIDs)
	})

	t.Run("strips @ prefix from usernames", func(t *testing.T) {
		setRequired(t)
		t.Setenv("WHITELISTED_USER_IDS", "")
		t.Setenv("WHITELISTED_USERNAMES", "@alice, bob ,")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, []string{"alice", "bob"}, cfg.WhitelistedUsernames)
	})

	t.Run("fails when TELEGRAM_BOT_TOKEN is missing", func(t *testing.T) {
		setRequired(t)
		t.Setenv("TELEGRAM_BOT_TOKEN", "")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN is required")
	})

	t.Run("fails when no whitelisted users", func(t *testing.T) {
		setRequired(t)
		t.Setenv("WHITELISTED_USER_IDS", "")
		t.Setenv("WHITELISTED_USERNAMES", "")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "at least one whitelisted user")
	})

	t.Run("fails with multiple validation errors", func(t *testing.T) {
		setRequired(t)
		t.Setenv("TELEGRAM_BOT_TOKEN", "")
		t.Setenv("DATABASE_URL", "")
		t.Setenv("CODE_PREFIX", "S1")
		t.Setenv("LOG_FORMAT", "xml")
		t.Setenv("OTEL_EXPORTER", "zipkin")
		t.Setenv("SMTP_HOST", "smtp.example.com")
		t.Setenv("SMTP_FROM", "")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN is required")
		require.Contains(t, err.Error(), "DATABASE_URL is required")
		require.Contains(t, err.Error(), "CODE_PREFIX must be 1 to 4 letters")
		require.Contains(t, err.Error(), "LOG_FORMAT must be console or json")
		require.Contains(t, err.Error(), "OTEL_EXPORTER must be one of")
		require.Contains(t, err.Error(), "SMTP_FROM is required")
	})
}

func TestIsUserWhitelisted(t *testing.T) {
	cfg := &Config{
		WhitelistedUserIDs:   []int64{111},
		WhitelistedUsernames: []string{"Admin"},
	}

	t.Run("matches by id", func(t *testing.T) {
		require.True(t, cfg.IsUserWhitelisted(111, ""))
	})

	t.Run("matches username case-insensitively with @", func(t *testing.T) {
		require.True(t, cfg.IsAdmin(999, "@admin"))
	})

	t.Run("rejects others", func(t *testing.T) {
		require.False(t, cfg.IsUserWhitelisted(222, "someone"))
	})
}
