// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Telemetry exporters accepted in OTEL_EXPORTER.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

var codePrefixRegex = regexp.MustCompile(`^[A-Z]{1,4}$`)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken     string
	DatabaseURL          string
	GeminiAPIKey         string
	LogLevel             string
	LogFormat            string
	WhitelistedUserIDs   []int64
	WhitelistedUsernames []string

	// TelegramChannelID is where approved listings are announced. Zero disables the relay.
	TelegramChannelID int64

	HTTPAddr            string
	CodePrefix          string
	ListingTTL          time.Duration
	ExpirySweepInterval time.Duration
	SupportPollInterval time.Duration
	CacheTTL            time.Duration

	SMTP         SMTPConfig
	SupportEmail string

	OTelExporter string

	// SessionSecret verifies HS256 bearer tokens from the web gateway. Empty trusts
	// the X-User-ID header instead, which is only safe behind the gateway.
	SessionSecret string
	// ChatSeparator starts every message in a copied channel history.
	ChatSeparator string
}

// minSessionSecretLength is the shortest SESSION_SECRET accepted.
const minSessionSecretLength = 32

// SMTPConfig configures outbound email. An empty Host disables email.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether outbound email is configured.
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

// Addr returns host:port.
func (s SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFormat:        envOr("LOG_FORMAT", "console"),
		HTTPAddr:         envOr("HTTP_ADDR", ":8080"),
		CodePrefix:       strings.ToUpper(envOr("CODE_PREFIX", "SF")),
		SupportEmail:     os.Getenv("SUPPORT_EMAIL"),
		OTelExporter:     envOr("OTEL_EXPORTER", ExporterNone),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		ChatSeparator:    os.Getenv("CHAT_SEPARATOR"),
	}

	cfg.ListingTTL = 30 * 24 * time.Hour
	if daysStr := os.Getenv("LISTING_TTL_DAYS"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			cfg.ListingTTL = time.Duration(d) * 24 * time.Hour
		}
	}
	cfg.ExpirySweepInterval = envDuration("EXPIRY_SWEEP_INTERVAL", time.Hour)
	cfg.SupportPollInterval = envDuration("SUPPORT_POLL_INTERVAL", 5*time.Minute)
	cfg.CacheTTL = envDuration("CACHE_TTL", 30*time.Second)

	if channelStr := os.Getenv("TELEGRAM_CHANNEL_ID"); channelStr != "" {
		if id, err := strconv.ParseInt(strings.TrimSpace(channelStr), 10, 64); err == nil {
			cfg.TelegramChannelID = id
		}
	}

	cfg.SMTP = SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     587,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil && p > 0 && p <= 65535 {
			cfg.SMTP.Port = p
		}
	}

	whitelistStr := os.Getenv("WHITELISTED_USER_IDS")
	if whitelistStr != "" {
		for idStr := range strings.SplitSeq(whitelistStr, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				continue
			}
			cfg.WhitelistedUserIDs = append(cfg.WhitelistedUserIDs, id)
		}
	}

	whitelistUsernames := os.Getenv("WHITELISTED_USERNAMES")
	if whitelistUsernames != "" {
		for username := range strings.SplitSeq(whitelistUsernames, ",") {
			username = strings.TrimSpace(username)
			if username == "" {
				continue
			}
			username = strings.TrimPrefix(username, "@")
			cfg.WhitelistedUsernames = append(cfg.WhitelistedUsernames, username)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// envDuration falls back when the value is missing, malformed or not positive.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if len(c.WhitelistedUserIDs) == 0 && len(c.WhitelistedUsernames) == 0 {
		errs = append(errs, "at least one whitelisted user (WHITELISTED_USER_IDS or WHITELISTED_USERNAMES) is required")
	}

	if !codePrefixRegex.MatchString(c.CodePrefix) {
		errs = append(errs, "CODE_PREFIX must be 1 to 4 letters")
	}

	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, "LOG_FORMAT must be console or json")
	}

	switch c.OTelExporter {
	case ExporterNone, ExporterStdout, ExporterOTLPHTTP, ExporterOTLPGRPC:
	default:
		errs = append(errs, "OTEL_EXPORTER must be one of none, stdout, otlp-http, otlp-grpc")
	}

	if c.SessionSecret != "" && len(c.SessionSecret) < minSessionSecretLength {
		errs = append(errs, fmt.Sprintf("SESSION_SECRET must be at least %d characters", minSessionSecretLength))
	}

	if c.SMTP.Enabled() && c.SMTP.From == "" {
		errs = append(errs, "SMTP_FROM is required when SMTP_HOST is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsAdmin checks if a Telegram user may use the admin bot.
func (c *Config) IsAdmin(userID int64, username string) bool {
	return c.IsUserWhitelisted(userID, username)
}

// IsUserWhitelisted checks if a Telegram user ID or username is in the whitelist.
// Returns true if either the user ID or username is whitelisted.
func (c *Config) IsUserWhitelisted(userID int64, username string) bool {
	if slices.Contains(c.WhitelistedUserIDs, userID) {
		return true
	}

	// Usernames compare case-insensitively.
	if username != "" {
		username = strings.TrimPrefix(username, "@")
		for _, whitelisted := range c.WhitelistedUsernames {
			if strings.EqualFold(whitelisted, username) {
				return true
			}
		}
	}

	return false
}
