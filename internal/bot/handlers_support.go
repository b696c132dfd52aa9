package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/subshare/subshare/internal/logger"
	appmodels "gitlab.com/subshare/subshare/internal/models"
)

func formatSupport(m *appmodels.SupportMessage) string {
	return fmt.Sprintf("✉️ <b>%s</b>\nDe: %s &lt;%s&gt;\n%s\n\n%s",
		escapeHTML(m.Subject),
		escapeHTML(m.Name),
		escapeHTML(m.Email),
		m.CreatedAt.Format("02/01/2006 15:04"),
		escapeHTML(m.Message))
}

func buildSupportKeyboard(id string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "✔️ Marcar como lida", CallbackData: callbackSupport + "read_" + id}},
		},
	}
}

// handleSupport handles the /support command.
func (b *Bot) handleSupport(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSupportCore(ctx, tgBot, update)
}

// handleSupportCore is the testable implementation of handleSupport.
func (b *Bot) handleSupportCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	msgs, err := b.ctrl.UnreadSupport(ctx)
	if err != nil {
		replyError(ctx, tg, chatID, "carregar o suporte", err)
		return
	}
	if len(msgs) == 0 {
		send(ctx, tg, chatID, "📭 Nenhuma mensagem de suporte não lida.")
		return
	}

	for i := range msgs {
		_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        formatSupport(&msgs[i]),
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: buildSupportKeyboard(msgs[i].ID),
		})
		if err != nil {
			logger.Log.Error().Err(err).Msg("Failed to send support message")
			return
		}
	}
}

// handleSupportCallback handles the mark-as-read button.
func (b *Bot) handleSupportCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSupportCallbackCore(ctx, tgBot, update)
}

// handleSupportCallbackCore is the testable implementation of handleSupportCallback.
func (b *Bot) handleSupportCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return
	}
	data := update.CallbackQuery.Data
	msg := update.CallbackQuery.Message.Message

	id, ok := strings.CutPrefix(data, callbackSupport+"read_")
	if !ok || id == "" {
		logger.Log.Error().Str("data", data).Msg("Invalid callback data format")
		return
	}

	answer := "Marcada como lida"
	if err := b.ctrl.MarkSupportRead(ctx, id); err != nil {
		logger.Log.Error().Err(err).Str("message_id", id).Msg("Failed to mark support message read")
		answer = "Falha ao marcar como lida"
	} else {
		_, err := tg.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    msg.Chat.ID,
			MessageID: msg.ID,
			Text:      msg.Text + "\n\n✔️ Lida",
		})
		if err != nil {
			logger.Log.Error().Err(err).Msg("Failed to edit support message")
		}
	}

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
		Text:            answer,
	})
}
