package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bookclub_bot/internal/bot"
	"bookclub_bot/internal/club"
	"bookclub_bot/internal/config"
	"bookclub_bot/internal/engine"
	"bookclub_bot/internal/logging"
	"bookclub_bot/internal/presence"
	"bookclub_bot/internal/scheduler"
	"bookclub_bot/internal/source"
	"bookclub_bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateBot(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	src, err := source.New(source.Options{
		Kind:    cfg.Source.Kind,
		SheetID: cfg.Source.SheetID,
		URL:     cfg.Source.URL,
		Path:    cfg.Source.Path,
	}, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		log.Warn("no reading list source, using cached list only", "error", err)
		src = nil
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Error("create telegram api", "error", err)
		os.Exit(1)
	}
	log.Info("authorized on telegram", "username", api.Self.UserName)

	sinks := presence.Multi{presence.NewLog(log)}
	if cfg.PresenceChatID != 0 {
		sinks = append(sinks, presence.NewTelegram(api, cfg.PresenceChatID))
	}

	eng := engine.New(
		engine.WithPresence(sinks),
		engine.WithLogger(log),
	)
	c := club.New(eng, store, src, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := c.Start(ctx); err != nil {
		if !errors.Is(err, engine.ErrDataSourceUnavailable) {
			log.Error("start club", "error", err)
			os.Exit(1)
		}
		log.Warn("reading list unavailable at startup", "error", err)
	}

	b := bot.New(api, c, cfg, log)

	sched := scheduler.New(c, b, cfg.PresenceChatID, log)
	sched.SetTickInterval(cfg.ReloadInterval)

	log.Info("starting bot", "source", cfg.Source.Kind, "reload_interval", cfg.ReloadInterval)

	go sched.Run(ctx)

	b.Run(ctx)

	log.Info("bot stopped")
}
