package lifecycle

import (
	"context"
	"fmt"

	"gitlab.com/subshare/subshare/internal/logger"
	"gitlab.com/subshare/subshare/internal/models"
)

// SubmitSupport stores a message for the support inbox and forwards it by email.
func (c *Controller) SubmitSupport(ctx context.Context, m models.SupportMessage) (res *Result, err error) {
	ctx, done := c.observe(ctx, "support")
	defer func() { done(err) }()

	if err := validateSupport(&m).orNil(); err != nil {
		return nil, err
	}
	if m.Subject == "" {
		m.Subject = "Mensagem de suporte"
	}
	m.ID = ""
	m.Read = false

	if err := c.stores.Support.Create(ctx, &m); err != nil {
		return nil, fmt.Errorf("store support message: %w", err)
	}

	c.log.Info().
		Str("message_id", m.ID).
		Str("email", logger.HashEmail(m.Email)).
		Msg("Support message received")

	res = &Result{}
	c.mail(ctx, res, models.EmailMessage{
		Name:           m.Name,
		Email:          m.Email,
		Subject:        m.Subject,
		Message:        m.Message,
		RecipientEmail: c.cfg.SupportEmail,
	})
	return res, nil
}

// SendEmail validates and dispatches an arbitrary email request. An empty
// recipient goes to the support address.
func (c *Controller) SendEmail(ctx context.Context, msg models.EmailMessage) error {
	if c.mailer == nil {
		return fmt.Errorf("send email: %w", ErrMailDisabled)
	}

	m := models.SupportMessage{Name: msg.Name, Email: msg.Email, Message: msg.Message}
	if err := validateSupport(&m).orNil(); err != nil {
		return err
	}
	msg.Name, msg.Email, msg.Message = m.Name, m.Email, m.Message
	if msg.RecipientEmail == "" {
		msg.RecipientEmail = c.cfg.SupportEmail
	}
	if msg.RecipientEmail == "" {
		ve := &ValidationError{}
		ve.add("recipientEmail", "no recipient configured")
		return ve
	}

	if err := c.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// UnreadSupport returns support messages not yet marked read.
func (c *Controller) UnreadSupport(ctx context.Context) ([]models.SupportMessage, error) {
	msgs, err := c.stores.Support.ListUnread(ctx)
	if err != nil {
		return nil, fmt.Errorf("list support messages: %w", err)
	}
	return msgs, nil
}

// MarkSupportRead marks one support message as handled.
func (c *Controller) MarkSupportRead(ctx context.Context, id string) error {
	if err := c.stores.Support.MarkRead(ctx, id); err != nil {
		return fmt.Errorf("mark support message read: %w", err)
	}
	return nil
}
