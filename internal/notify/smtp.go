package notify

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gitlab.com/subshare/subshare/internal/config"
	"gitlab.com/subshare/subshare/internal/logger"
	"gitlab.com/subshare/subshare/internal/models"
)

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends plain-text email through one SMTP relay.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	send SendFunc
	now  func() time.Time
	log  zerolog.Logger
}

// NewSMTPMailer creates a mailer for cfg.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return NewSMTPMailerWithSender(cfg, smtp.SendMail)
}

// NewSMTPMailerWithSender creates a mailer with a custom transport, for testing.
func NewSMTPMailerWithSender(cfg config.SMTPConfig, send SendFunc) *SMTPMailer {
	return &SMTPMailer{
		cfg:  cfg,
		send: send,
		now:  time.Now,
		log:  logger.Component("mailer"),
	}
}

// Send delivers msg to msg.RecipientEmail. The sender's own address becomes
// Reply-To so support can answer directly.
func (m *SMTPMailer) Send(ctx context.Context, msg models.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.RecipientEmail == "" {
		return fmt.Errorf("failed to send email: no recipient")
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	body := m.buildMessage(msg)
	if err := m.send(m.cfg.Addr(), auth, m.cfg.From, []string{msg.RecipientEmail}, body); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.log.Info().
		Str("recipient", logger.HashEmail(msg.RecipientEmail)).
		Str("subject", logger.SanitizeText(msg.Subject)).
		Msg("Email sent")
	return nil
}

func (m *SMTPMailer) buildMessage(msg models.EmailMessage) []byte {
	from := m.cfg.From
	if msg.Name != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", msg.Name), m.cfg.From)
	}

	headers := [][2]string{
		{"From", from},
		{"To", msg.RecipientEmail},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", m.now().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=UTF-8"},
	}
	if msg.Email != "" {
		headers = append(headers, [2]string{"Reply-To", msg.Email})
	}

	var b strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], stripNewlines(h[1]))
	}
	b.WriteString("\r\n")

	b.WriteString(strings.ReplaceAll(normalizeBody(msg.Message), "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

func stripNewlines(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func normalizeBody(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
