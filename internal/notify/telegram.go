// Package notify delivers listing announcements to the Telegram channel and
// notification emails over SMTP.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/logger"
	"gitlab.com/subshare/subshare/internal/models"
)

// ChannelAPI is the part of the Telegram client the relay needs.
type ChannelAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*tgmodels.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
}

// Compile-time check that the real bot satisfies the interface.
var _ ChannelAPI = (*bot.Bot)(nil)

// TelegramRelay posts, edits and removes listing announcements in one channel.
type TelegramRelay struct {
	api       ChannelAPI
	channelID int64
	log       zerolog.Logger
}

// NewTelegramRelay creates a relay for channelID.
func NewTelegramRelay(api ChannelAPI, channelID int64) *TelegramRelay {
	return &TelegramRelay{
		api:       api,
		channelID: channelID,
		log:       logger.Component("relay"),
	}
}

// Publish posts l and returns the channel message id.
func (r *TelegramRelay) Publish(ctx context.Context, l *models.Listing) (int, error) {
	msg, err := r.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: r.channelID,
		Text:   FormatAnnouncement(l),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to publish %s: %w", l.Code, err)
	}
	r.log.Debug().Str("code", l.Code).Int("message_id", msg.ID).Msg("Listing announced")
	return msg.ID, nil
}

// Edit rewrites an existing announcement with the current listing fields.
func (r *TelegramRelay) Edit(ctx context.Context, messageID int, l *models.Listing) error {
	_, err := r.api.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    r.channelID,
		MessageID: messageID,
		Text:      FormatAnnouncement(l),
	})
	if err != nil {
		return fmt.Errorf("failed to edit announcement %d: %w", messageID, err)
	}
	return nil
}

// Remove deletes an announcement.
func (r *TelegramRelay) Remove(ctx context.Context, messageID int) error {
	if _, err := r.api.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    r.channelID,
		MessageID: messageID,
	}); err != nil {
		return fmt.Errorf("failed to delete announcement %d: %w", messageID, err)
	}
	return nil
}

// FormatAnnouncement renders l in the channel message layout, which the chat
// importer reads back. Empty fields are left out.
func FormatAnnouncement(l *models.Listing) string {
	var b strings.Builder
	line := func(marker, sep, value string) {
		if value == "" {
			return
		}
		b.WriteString(marker)
		b.WriteString(sep)
		b.WriteString(value)
		b.WriteByte('\n')
	}

	if l.Featured {
		b.WriteString("🔥 DESTAQUE\n")
	}
	line(catalog.MarkerTitle, " ", l.Title)
	price := l.Price
	if price != "" && l.PaymentMethod != "" {
		price += " - " + l.PaymentMethod
	}
	line(catalog.MarkerPrice, " ", price)
	line(catalog.MarkerStatus, "", l.Status)
	line(catalog.MarkerAccess, " ", l.Access)
	line(catalog.MarkerTelegram, "", l.TelegramUsername)
	if l.WhatsAppNumber != "" {
		line(catalog.MarkerWhatsApp, " ", "https://wa.me/"+l.WhatsAppNumber)
	}
	if l.Code != "" {
		b.WriteByte('\n')
		line(catalog.MarkerCode, " ", "Código: "+l.Code)
	}
	return strings.TrimRight(b.String(), "\n")
}
