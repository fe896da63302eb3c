package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tokenizedCompare/internal/app"
	"tokenizedCompare/internal/config"
	"tokenizedCompare/internal/logger"
	"tokenizedCompare/internal/server"
	"tokenizedCompare/internal/telegram"
)

func main() {
	logger.Initialize(os.Getenv("LOG_LEVEL"))
	cfg, err := config.Load()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("config")
	}
	logger.Initialize(cfg.LogLevel)
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}
	defer a.Close()

	var webhook http.HandlerFunc
	if cfg.TelegramEnabled() {
		tg, err := telegram.NewBot(cfg.TelegramToken, cfg.WebhookPublicURL, a.TelegramDeps(), logger.GetForComponent("telegram"))
		if err != nil {
			log.Fatal().Err(err).Msg("telegram")
		}
		webhook = tg.WebhookHandler
	} else {
		log.Info().Msg("telegram: disabled, set TELEGRAM_BOT_TOKEN and WEBHOOK_PUBLIC_URL to enable")
	}

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("http: listening")
	if err := server.ListenAndServe(ctx, addr, a.Handler(webhook)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
	log.Info().Msg("shut down")
}
