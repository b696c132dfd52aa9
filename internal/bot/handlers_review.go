package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/subshare/subshare/internal/lifecycle"
	"gitlab.com/subshare/subshare/internal/logger"
	appmodels "gitlab.com/subshare/subshare/internal/models"
)

// Callback data prefixes.
const (
	callbackReview  = "review_"
	callbackSupport = "support_"
)

// shortIDLength is how much of an id the bot shows and accepts.
const shortIDLength = 8

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func buildReviewKeyboard(pendingID string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Aprovar", CallbackData: callbackReview + "approve_" + pendingID},
				{Text: "❌ Recusar", CallbackData: callbackReview + "reject_" + pendingID},
			},
		},
	}
}

func formatPending(p *appmodels.PendingSubmission) string {
	kind := "Nova"
	if p.TargetListingID != "" {
		kind = "Alteração"
	}
	return fmt.Sprintf("📝 <b>%s</b> · <code>%s</code>\n%s",
		kind, escapeHTML(shortID(p.ID)), formatRecord(&p.Listing))
}

// resolvePending finds a pending submission by full id or unique id prefix.
func (b *Bot) resolvePending(ctx context.Context, ref string) (*appmodels.PendingSubmission, error) {
	pending, err := b.ctrl.PendingForReview(ctx)
	if err != nil {
		return nil, err
	}

	for i := range pending {
		if pending[i].ID == ref {
			return &pending[i], nil
		}
	}

	var match *appmodels.PendingSubmission
	for i := range pending {
		if strings.HasPrefix(pending[i].ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("id prefix %q is ambiguous: %w", ref, appmodels.ErrConflict)
			}
			match = &pending[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("pending %s: %w", ref, appmodels.ErrNotFound)
	}
	return match, nil
}

func replyPendingError(ctx context.Context, tg TelegramAPI, chatID int64, err error) {
	if errors.Is(err, appmodels.ErrConflict) {
		send(ctx, tg, chatID, "❌ Mais de um envio começa com este id. Informe mais caracteres.")
		return
	}
	replyError(ctx, tg, chatID, "localizar o envio", err)
}

// handlePending handles the /pending command.
func (b *Bot) handlePending(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handlePendingCore(ctx, tgBot, update)
}

// handlePendingCore is the testable implementation of handlePending.
func (b *Bot) handlePendingCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	pending, err := b.ctrl.PendingForReview(ctx)
	if err != nil {
		replyError(ctx, tg, chatID, "carregar os envios", err)
		return
	}
	if len(pending) == 0 {
		send(ctx, tg, chatID, "✅ Nenhum envio aguardando aprovação.")
		return
	}

	send(ctx, tg, chatID, fmt.Sprintf("📥 %d envio(s) aguardando aprovação:", len(pending)))
	for i := range pending {
		_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        formatPending(&pending[i]),
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: buildReviewKeyboard(pending[i].ID),
		})
		if err != nil {
			logger.Log.Error().Err(err).Msg("Failed to send pending submission")
			return
		}
	}
}

// handleApprove handles the /approve command.
func (b *Bot) handleApprove(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleApproveCore(ctx, tgBot, update)
}

// handleApproveCore is the testable implementation of handleApprove.
func (b *Bot) handleApproveCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	ref := extractCommandArgs(update.Message.Text, "/approve")
	if ref == "" {
		send(ctx, tg, chatID, "Uso: <code>/approve &lt;id&gt;</code>")
		return
	}

	p, err := b.resolvePending(ctx, ref)
	if err != nil {
		replyPendingError(ctx, tg, chatID, err)
		return
	}
	send(ctx, tg, chatID, b.approve(ctx, p.ID))
}

// approve runs the approval and returns the reply text.
func (b *Bot) approve(ctx context.Context, pendingID string) string {
	res, err := b.ctrl.Approve(ctx, pendingID)
	if err != nil {
		logger.Log.Error().Err(err).Str("pending_id", pendingID).Msg("Failed to approve submission")
		if lifecycle.IsNotFound(err) {
			return "❌ Envio não encontrado. Talvez já tenha sido revisado."
		}
		return "❌ Falha ao aprovar. Tente novamente."
	}
	return fmt.Sprintf("✅ Aprovado como <code>%s</code>: %s%s",
		escapeHTML(res.Listing.Code), escapeHTML(res.Listing.Title), formatWarnings(res.Warnings))
}

// handleReject handles the /reject command.
func (b *Bot) handleReject(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleRejectCore(ctx, tgBot, update)
}

// handleRejectCore is the testable implementation of handleReject.
func (b *Bot) handleRejectCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := extractCommandArgs(update.Message.Text, "/reject")
	ref, reason, _ := strings.Cut(args, " ")
	if ref == "" {
		send(ctx, tg, chatID, "Uso: <code>/reject &lt;id&gt; [motivo]</code>")
		return
	}

	p, err := b.resolvePending(ctx, ref)
	if err != nil {
		replyPendingError(ctx, tg, chatID, err)
		return
	}
	send(ctx, tg, chatID, b.reject(ctx, p.ID, strings.TrimSpace(reason)))
}

func (b *Bot) reject(ctx context.Context, pendingID, reason string) string {
	res, err := b.ctrl.Reject(ctx, pendingID, reason)
	if err != nil {
		logger.Log.Error().Err(err).Str("pending_id", pendingID).Msg("Failed to reject submission")
		if lifecycle.IsNotFound(err) {
			return "❌ Envio não encontrado. Talvez já tenha sido revisado."
		}
		return "❌ Falha ao recusar. Tente novamente."
	}
	return fmt.Sprintf("🗑 Recusado: %s%s", escapeHTML(res.Pending.Title), formatWarnings(res.Warnings))
}

// handleReviewCallback handles the approve and reject buttons under /pending.
func (b *Bot) handleReviewCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleReviewCallbackCore(ctx, tgBot, update)
}

// handleReviewCallbackCore is the testable implementation of handleReviewCallback.
func (b *Bot) handleReviewCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return
	}

	data := update.CallbackQuery.Data
	chatID := update.CallbackQuery.Message.Message.Chat.ID
	messageID := update.CallbackQuery.Message.Message.ID

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})

	action, pendingID, ok := strings.Cut(strings.TrimPrefix(data, callbackReview), "_")
	if !ok || pendingID == "" {
		logger.Log.Error().Str("data", data).Msg("Invalid callback data format")
		return
	}

	var text string
	switch action {
	case "approve":
		text = b.approve(ctx, pendingID)
	case "reject":
		text = b.reject(ctx, pendingID, "")
	default:
		logger.Log.Error().Str("data", data).Msg("Unknown review action")
		return
	}

	_, err := tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to edit review message")
	}
}
