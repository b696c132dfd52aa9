// Package main is the entry point for the SubShare marketplace service: the
// HTTP API, the admin Telegram bot and their background loops.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"gitlab.com/subshare/subshare/internal/api"
	"gitlab.com/subshare/subshare/internal/bot"
	"gitlab.com/subshare/subshare/internal/catalog"
	"gitlab.com/subshare/subshare/internal/config"
	"gitlab.com/subshare/subshare/internal/database"
	"gitlab.com/subshare/subshare/internal/gemini"
	"gitlab.com/subshare/subshare/internal/lifecycle"
	"gitlab.com/subshare/subshare/internal/logger"
	"gitlab.com/subshare/subshare/internal/notify"
	"gitlab.com/subshare/subshare/internal/repository"
	"gitlab.com/subshare/subshare/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const telemetryShutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("subshare %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	if cfg.LogFormat == "json" {
		logger.SetJSON()
	}
	logger.SetLevel(cfg.LogLevel)
	logger.InitHashSalt()

	tp, err := telemetry.Setup(ctx, telemetry.Options{Exporter: cfg.OTelExporter, Version: version})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer shutdownCancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	var opts []lifecycle.Option

	if cfg.TelegramChannelID != 0 {
		relayClient, err := tgbot.New(cfg.TelegramBotToken, tgbot.WithSkipGetMe())
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to create channel relay")
		}
		opts = append(opts, lifecycle.WithAnnouncer(notify.NewTelegramRelay(relayClient, cfg.TelegramChannelID)))
	} else {
		logger.Log.Info().Msg("TELEGRAM_CHANNEL_ID not set, channel announcements disabled")
	}

	if cfg.SMTP.Enabled() {
		opts = append(opts, lifecycle.WithMailer(notify.NewSMTPMailer(cfg.SMTP)))
	} else {
		logger.Log.Info().Msg("SMTP_HOST not set, email notifications disabled")
	}

	var extractor bot.ImageExtractor
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		opts = append(opts, lifecycle.WithExtractor(client))
		extractor = client
	} else {
		logger.Log.Info().Msg("GEMINI_API_KEY not set, listing extraction disabled")
	}

	ctrl := lifecycle.New(repository.NewStores(pool), repository.NewTransactor(pool), lifecycle.Config{
		CodePrefix:   cfg.CodePrefix,
		ListingTTL:   cfg.ListingTTL,
		SupportEmail: cfg.SupportEmail,
		Parser:       &catalog.Parser{Separator: cfg.ChatSeparator},
	}, opts...)

	sessions := api.NewSessionManager(cfg.SessionSecret,
		repository.NewAdminRepository(pool), repository.NewSupportRepository(pool))
	if cfg.SessionSecret == "" {
		logger.Log.Warn().Msg("SESSION_SECRET not set, trusting gateway identity headers")
	}
	handler := api.NewHandler(ctrl, sessions, api.NewListingCache(0, cfg.CacheTTL), pool)

	telegramBot, err := bot.New(cfg, bot.Deps{Controller: ctrl, Extractor: extractor})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		if err := api.NewServer(cfg.HTTPAddr, handler.Routes()).Run(ctx); err != nil {
			logger.Log.Error().Err(err).Msg("HTTP server stopped")
			cancel()
		}
	})

	telegramBot.Start(ctx)
	wg.Wait()
}
