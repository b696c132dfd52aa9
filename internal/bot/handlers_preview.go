package bot

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/gemini"
	"gitlab.com/subshare/subshare/internal/logger"
)

// handleFreeTextCore previews how a forwarded channel message would be imported.
func (b *Bot) handleFreeTextCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	msg := update.Message
	chatID := msg.Chat.ID

	if !strings.Contains(msg.Text, catalog.MarkerTitle) {
		send(ctx, tg, chatID, "Não entendi. Use /help para ver os comandos ou envie uma mensagem do canal para pré-visualizar.")
		return
	}

	l := catalog.ParseOne(msg.Text)
	if l == nil || l.Title == "" {
		send(ctx, tg, chatID, "❌ Não encontrei uma assinatura nesta mensagem.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🔎 <b>Pré-visualização</b>\n")
	sb.WriteString(formatRecord(l))
	if catalog.LooksMerged(msg.Text) {
		sb.WriteString("\n⚠️ A mensagem tem mais de um título; só o último foi lido.")
	}
	if !l.HasContact() {
		sb.WriteString("\n⚠️ Sem contato: a importação vai recusar esta mensagem.")
	}
	sb.WriteString("\nUse <code>/importchat</code> para adicioná-la.")
	send(ctx, tg, chatID, sb.String())
}

// handlePhotoCore reads a listing out of a screenshot and previews it.
func (b *Bot) handlePhotoCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	msg := update.Message
	chatID := msg.Chat.ID

	if b.extractor == nil {
		send(ctx, tg, chatID, "📷 A leitura de imagens não está configurada. Cole o texto da mensagem.")
		return
	}

	largest := msg.Photo[len(msg.Photo)-1]
	_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "📷 Lendo a imagem...",
	})

	data, err := b.downloadFile(ctx, tg, largest.FileID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to download photo")
		send(ctx, tg, chatID, "❌ Falha ao baixar a foto. Tente novamente.")
		return
	}

	l, err := b.extractor.ExtractListingFromImage(ctx, data, http.DetectContentType(data))
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to extract listing from photo")
		switch {
		case errors.Is(err, gemini.ErrExtractTimeout):
			send(ctx, tg, chatID, "⏱️ A leitura demorou demais. Tente novamente.")
		case errors.Is(err, gemini.ErrNoData):
			send(ctx, tg, chatID, "❌ Não encontrei uma assinatura nesta imagem.")
		default:
			send(ctx, tg, chatID, "❌ Não consegui ler esta imagem.")
		}
		return
	}

	send(ctx, tg, chatID, "🔎 <b>Lido da imagem</b>\n"+formatRecord(l)+
		"\nConfira os dados antes de colar em <code>/importchat</code>.")
}
