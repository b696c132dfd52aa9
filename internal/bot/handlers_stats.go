package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/subshare/subshare/internal/logger"
	appmodels "gitlab.com/subshare/subshare/internal/models"
)

// expiryWarningDays is how far ahead /stats looks for lapsing member listings.
const expiryWarningDays = 3

// catalogStats summarizes the catalog for /stats.
type catalogStats struct {
	Total        int
	Visible      int
	Featured     int
	Member       int
	Pending      int
	Expired      int
	Unread       int
	ExpiringSoon int
}

func (b *Bot) collectStats(ctx context.Context, listings []appmodels.Listing) (catalogStats, error) {
	s := catalogStats{Total: len(listings)}
	for i := range listings {
		if listings[i].Visible {
			s.Visible++
		}
		if listings[i].Featured {
			s.Featured++
		}
		if listings[i].IsMemberSubmitted() {
			s.Member++
		}
	}

	pending, err := b.ctrl.PendingForReview(ctx)
	if err != nil {
		return s, err
	}
	s.Pending = len(pending)

	expired, err := b.ctrl.Stores().Expired.ListAll(ctx)
	if err != nil {
		return s, fmt.Errorf("list expired: %w", err)
	}
	s.Expired = len(expired)

	unread, err := b.ctrl.UnreadSupport(ctx)
	if err != nil {
		return s, err
	}
	s.Unread = len(unread)

	soon, err := b.ctrl.ExpiringSoon(ctx, b.now(), expiryWarningDays)
	if err != nil {
		return s, err
	}
	s.ExpiringSoon = len(soon)
	return s, nil
}

func (s catalogStats) format() string {
	var sb strings.Builder
	sb.WriteString("📊 <b>Resumo do catálogo</b>\n\n")
	fmt.Fprintf(&sb, "Assinaturas: %d (%d visíveis, %d em destaque)\n", s.Total, s.Visible, s.Featured)
	fmt.Fprintf(&sb, "De membros: %d\n", s.Member)
	fmt.Fprintf(&sb, "Aguardando aprovação: %d\n", s.Pending)
	fmt.Fprintf(&sb, "Arquivadas: %d\n", s.Expired)
	fmt.Fprintf(&sb, "Suporte não lido: %d", s.Unread)
	if s.ExpiringSoon > 0 {
		fmt.Fprintf(&sb, "\n⏳ Expiram em até %d dias: %d", expiryWarningDays, s.ExpiringSoon)
	}
	return sb.String()
}

// handleStats handles the /stats command.
func (b *Bot) handleStats(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStatsCore(ctx, tgBot, update)
}

// handleStatsCore is the testable implementation of handleStats.
func (b *Bot) handleStatsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	listings, err := b.ctrl.Stores().Listings.List(ctx, appmodels.ListingFilter{})
	if err != nil {
		replyError(ctx, tg, chatID, "carregar o catálogo", err)
		return
	}

	stats, err := b.collectStats(ctx, listings)
	if err != nil {
		replyError(ctx, tg, chatID, "calcular o resumo", err)
		return
	}
	send(ctx, tg, chatID, stats.format())

	if len(listings) == 0 {
		return
	}

	png, err := GenerateCatalogChart(listings)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate catalog chart")
		send(ctx, tg, chatID, "❌ Falha ao gerar o gráfico.")
		return
	}

	_, err = tg.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: chatID,
		Photo: &models.InputFileUpload{
			Filename: generateChartFilename(b.now()),
			Data:     bytes.NewReader(png),
		},
		Caption: "Assinaturas por categoria",
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send catalog chart")
	}
}
