package lifecycle

import (
	"context"
	"fmt"

	"gitlab.com/subshare/subshare/internal/logger"
	"gitlab.com/subshare/subshare/internal/models"
)

const senderName = "SubShare"

func (c *Controller) ownerNotice(to, subject, body string) models.EmailMessage {
	return models.EmailMessage{
		Name:           senderName,
		Email:          c.cfg.SupportEmail,
		Subject:        subject,
		Message:        body,
		RecipientEmail: to,
	}
}

func (c *Controller) approvedNotice(l *models.Listing) models.EmailMessage {
	return c.ownerNotice(l.ContactEmail,
		fmt.Sprintf("Assinatura aprovada: %s", l.Title),
		fmt.Sprintf("Sua assinatura %s foi aprovada e já está visível com o código %s.", l.Title, l.Code))
}

func (c *Controller) modifiedNotice(l *models.Listing) models.EmailMessage {
	return c.ownerNotice(l.ContactEmail,
		fmt.Sprintf("Assinatura atualizada: %s", l.Title),
		fmt.Sprintf("Sua assinatura %s (%s) foi atualizada.", l.Title, l.Code))
}

func (c *Controller) rejectedNotice(p *models.PendingSubmission, reason string) models.EmailMessage {
	body := fmt.Sprintf("Sua assinatura %s não foi aprovada.", p.Title)
	if reason != "" {
		body += "\nMotivo: " + reason
	}
	return c.ownerNotice(p.ContactEmail, fmt.Sprintf("Assinatura recusada: %s", p.Title), body)
}

func (c *Controller) lapsedNotice(l *models.Listing) models.EmailMessage {
	return c.ownerNotice(l.ContactEmail,
		fmt.Sprintf("Assinatura expirada: %s", l.Title),
		fmt.Sprintf("Sua assinatura %s (%s) expirou. Você pode reenviá-la para aprovação pelo painel.", l.Title, l.Code))
}

func (c *Controller) submissionNotice(p *models.PendingSubmission) models.EmailMessage {
	kind := "Nova assinatura"
	if p.TargetListingID != "" {
		kind = "Alteração de assinatura"
	}
	return models.EmailMessage{
		Name:           senderName,
		Email:          p.ContactEmail,
		Subject:        fmt.Sprintf("%s aguardando aprovação: %s", kind, p.Title),
		Message:        fmt.Sprintf("%s\n%s - %s", p.Title, p.Price, p.PaymentMethod),
		RecipientEmail: c.cfg.SupportEmail,
	}
}

// mail sends msg when a mailer and a recipient are configured. Failures become warnings.
func (c *Controller) mail(ctx context.Context, res *Result, msg models.EmailMessage) {
	if c.mailer == nil || msg.RecipientEmail == "" {
		return
	}
	if err := c.mailer.Send(ctx, msg); err != nil {
		c.log.Warn().Err(err).
			Str("recipient", logger.HashEmail(msg.RecipientEmail)).
			Msg("Failed to send notification email")
		res.warn("email notification failed: " + err.Error())
	}
}

// announce publishes l, or edits its existing announcement, and records the message id.
func (c *Controller) announce(ctx context.Context, res *Result, l *models.Listing) {
	if c.announcer == nil || !l.Visible {
		return
	}

	if l.TelegramMessageID != 0 {
		if err := c.announcer.Edit(ctx, l.TelegramMessageID, l); err != nil {
			c.log.Warn().Err(err).Str("code", l.Code).Msg("Failed to edit channel announcement")
			res.warn("channel announcement update failed: " + err.Error())
		}
		return
	}

	messageID, err := c.announcer.Publish(ctx, l)
	if err != nil {
		c.log.Warn().Err(err).Str("code", l.Code).Msg("Failed to publish channel announcement")
		res.warn("channel announcement failed: " + err.Error())
		return
	}
	if err := c.stores.Listings.SetTelegramMessageID(ctx, l.ID, messageID); err != nil {
		c.log.Warn().Err(err).Str("code", l.Code).Msg("Failed to record announcement id")
		res.warn("announcement id not saved: " + err.Error())
		return
	}
	l.TelegramMessageID = messageID
}

// unannounce removes the channel post for a listing that is no longer public.
func (c *Controller) unannounce(ctx context.Context, res *Result, l *models.Listing) {
	if c.announcer == nil || l.TelegramMessageID == 0 {
		return
	}
	if err := c.announcer.Remove(ctx, l.TelegramMessageID); err != nil {
		c.log.Warn().Err(err).Str("code", l.Code).Msg("Failed to remove channel announcement")
		res.warn("channel announcement removal failed: " + err.Error())
	}
}
