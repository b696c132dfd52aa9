package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/subshare/subshare/internal/logger"
)

// LoopTimeout is the maximum time a single sweep or poll can take.
const LoopTimeout = 2 * time.Minute

// runLoop calls tick once immediately and then every interval until ctx ends.
func runLoop(ctx context.Context, name string, interval time.Duration, tick func(ctx context.Context, now time.Time)) {
	if interval <= 0 {
		logger.Log.Info().Str("loop", name).Msg("Background loop is disabled")
		return
	}

	logger.Log.Info().Str("loop", name).Dur("interval", interval).Msg("Background loop started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	select {
	case <-ctx.Done():
		logger.Log.Info().Str("loop", name).Msg("Background loop stopped")
		return
	default:
	}

	tick(ctx, time.Now())

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Str("loop", name).Msg("Background loop stopped")
			return
		case now := <-ticker.C:
			tick(ctx, now)
		}
	}
}

// startExpirySweepLoop archives lapsed member listings on EXPIRY_SWEEP_INTERVAL.
func (b *Bot) startExpirySweepLoop(ctx context.Context) {
	runLoop(ctx, "expiry_sweep", b.cfg.ExpirySweepInterval, b.sweepExpired)
}

// sweepExpired runs one expiry sweep and tells the admins what lapsed.
func (b *Bot) sweepExpired(ctx context.Context, now time.Time) {
	sweepCtx, cancel := context.WithTimeout(ctx, LoopTimeout)
	defer cancel()

	n, err := b.ctrl.SweepLapsed(sweepCtx, now)
	if err != nil {
		logger.Log.Error().Err(err).Int("expired", n).Msg("Expiry sweep finished with errors")
	}
	if n == 0 {
		return
	}

	logger.Log.Info().Int("expired", n).Msg("Expiry sweep archived listings")
	b.notifyAdmins(sweepCtx, fmt.Sprintf("📦 %d assinatura(s) de membros expiraram e foram arquivadas.", n))
}

// startSupportPollLoop checks the support inbox on SUPPORT_POLL_INTERVAL.
func (b *Bot) startSupportPollLoop(ctx context.Context) {
	runLoop(ctx, "support_poll", b.cfg.SupportPollInterval, b.pollSupport)
}

// pollSupport notifies the admins of unread support messages they have not
// been told about yet. The seen set only keeps ids that are still unread.
func (b *Bot) pollSupport(ctx context.Context, _ time.Time) {
	pollCtx, cancel := context.WithTimeout(ctx, LoopTimeout)
	defer cancel()

	msgs, err := b.ctrl.UnreadSupport(pollCtx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to poll support inbox")
		return
	}

	b.supportMu.Lock()
	unread := make(map[string]bool, len(msgs))
	var fresh []string
	for i := range msgs {
		unread[msgs[i].ID] = true
		if !b.seenSupport[msgs[i].ID] {
			fresh = append(fresh, escapeHTML(msgs[i].Subject))
		}
	}
	b.seenSupport = unread
	b.supportMu.Unlock()

	if len(fresh) == 0 {
		return
	}

	text := fmt.Sprintf("📬 %d nova(s) mensagem(ns) de suporte:\n• %s\n\nUse /support para ler.",
		len(fresh), strings.Join(fresh, "\n• "))
	b.notifyAdmins(pollCtx, text)
}

// notifyAdmins messages every admin listed by id. Admins whitelisted only by
// username cannot be messaged first.
func (b *Bot) notifyAdmins(ctx context.Context, text string) {
	for _, id := range b.cfg.WhitelistedUserIDs {
		_, err := b.messageSender.SendMessage(ctx, &tgbot.SendMessageParams{
			ChatID:    id,
			Text:      text,
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(id)).Msg("Failed to notify admin")
		}
	}
}
