// Package bot runs the admin Telegram bot: the review queue, catalog
// moderation, TXT backups and the background maintenance loops.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"gitlab.com/subshare/subshare/internal/config"
	"gitlab.com/subshare/subshare/internal/lifecycle"
	"gitlab.com/subshare/subshare/internal/logger"
	"gitlab.com/subshare/subshare/internal/models"
)

// downloadTimeout bounds fetching a photo or document from Telegram.
const downloadTimeout = 30 * time.Second

// ImageExtractor reads a listing out of a screenshot.
type ImageExtractor interface {
	ExtractListingFromImage(ctx context.Context, imageBytes []byte, mimeType string) (*models.Listing, error)
}

// Deps are the collaborators the bot drives.
type Deps struct {
	Controller *lifecycle.Controller
	// Extractor is optional; without it photos are answered with a hint.
	Extractor ImageExtractor
}

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot           *bot.Bot
	cfg           *config.Config
	ctrl          *lifecycle.Controller
	extractor     ImageExtractor
	messageSender TelegramAPI
	httpClient    *http.Client
	now           func() time.Time

	// seenSupport holds unread support message ids admins were already told about.
	supportMu   sync.Mutex
	seenSupport map[string]bool
}

// New creates a new Bot instance.
func New(cfg *config.Config, deps Deps) (*Bot, error) {
	b := &Bot{
		cfg:         cfg,
		ctrl:        deps.Controller,
		extractor:   deps.Extractor,
		httpClient:  &http.Client{Timeout: downloadTimeout},
		now:         time.Now,
		seenSupport: make(map[string]bool),
	}

	opts := []bot.Option{
		bot.WithMiddlewares(b.whitelistMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithCallbackQueryDataHandler(callbackReview, bot.MatchTypePrefix, b.handleReviewCallback),
		bot.WithCallbackQueryDataHandler(callbackSupport, bot.MatchTypePrefix, b.handleSupportCallback),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.messageSender = telegramBot
	b.registerHandlers()

	return b, nil
}

// Start launches the maintenance loops and polls for updates until ctx ends.
func (b *Bot) Start(ctx context.Context) {
	go b.startExpirySweepLoop(ctx)
	go b.startSupportPollLoop(ctx)

	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// registerHandlers sets up command handlers.
func (b *Bot) registerHandlers() {
	commands := []struct {
		name    string
		handler bot.HandlerFunc
	}{
		{"/start", b.handleStart},
		{"/help", b.handleHelp},
		{"/pending", b.handlePending},
		{"/approve", b.handleApprove},
		{"/reject", b.handleReject},
		{"/hide", b.handleHide},
		{"/show", b.handleShow},
		{"/feature", b.handleFeature},
		{"/unfeature", b.handleUnfeature},
		{"/expire", b.handleExpire},
		{"/delete", b.handleDelete},
		{"/list", b.handleList},
		{"/export", b.handleExport},
		{"/importchat", b.handleImportChat},
		{"/import", b.handleImport},
		{"/stats", b.handleStats},
		{"/support", b.handleSupport},
	}
	for _, c := range commands {
		b.bot.RegisterHandler(bot.HandlerTypeMessageText, c.name, bot.MatchTypeCommand, c.handler)
	}
}

// whitelistMiddleware lets only configured admins reach the handlers.
func (b *Bot) whitelistMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		userID := extractUserID(update)
		if userID == 0 {
			return
		}

		username := extractUsername(update)
		logUserAction(userID, update)

		if !b.cfg.IsAdmin(userID, username) {
			logger.Log.Warn().
				Str("user_hash", logger.HashUserID(userID)).
				Msg("Blocked non-admin user")
			if update.Message != nil {
				_, _ = tgBot.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: update.Message.Chat.ID,
					Text:   "⛔ Este bot é restrito aos administradores.",
				})
			}
			return
		}

		next(ctx, tgBot, update)
	}
}

// logUserAction logs the admin's input without message bodies, which may
// carry member contact details.
func logUserAction(userID int64, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		event := logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("chat_hash", logger.HashChatID(msg.Chat.ID))

		switch {
		case msg.Document != nil:
			event = event.Str("type", "document").Str("filename", msg.Document.FileName)
		case len(msg.Photo) > 0:
			event = event.Str("type", "photo")
		default:
			event = event.Str("command", commandOf(msg.Text))
		}
		event.Msg("Admin input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")
	}
}

// extractUsername gets the username from the update.
func extractUsername(update *tgmodels.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.Username
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.Username
	}
	return ""
}

// extractUserID gets the user ID from various update types.
func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

// defaultHandler routes documents, photos and free text.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.defaultHandlerCore(ctx, tgBot, update)
}

// defaultHandlerCore is the testable implementation of defaultHandler.
func (b *Bot) defaultHandlerCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	switch {
	case update.Message.Document != nil:
		b.handleDocumentCore(ctx, tg, update)
	case len(update.Message.Photo) > 0:
		b.handlePhotoCore(ctx, tg, update)
	default:
		b.handleFreeTextCore(ctx, tg, update)
	}
}
