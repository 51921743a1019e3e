// Package main contains the entrypoint for the Telegram bot application.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/rojitobot/internal/ai"
	"github.com/edgard/rojitobot/internal/bot"
	"github.com/edgard/rojitobot/internal/bot/handlers"
	"github.com/edgard/rojitobot/internal/bot/tasks"
	"github.com/edgard/rojitobot/internal/broadcast"
	"github.com/edgard/rojitobot/internal/config"
	"github.com/edgard/rojitobot/internal/logger"
	"github.com/edgard/rojitobot/internal/orchestrator"
	"github.com/edgard/rojitobot/internal/server"
	"github.com/edgard/rojitobot/internal/state"
	"github.com/edgard/rojitobot/internal/storage"
	"github.com/edgard/rojitobot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component in dependency order, blocks until shutdown and
// returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	store, err := storage.Open(ctx, cfg.Store, log)
	if err != nil {
		log.Error("Failed to open state store", "driver", cfg.Store.Driver, "error", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing state store", "error", err)
		}
	}()

	opts := []state.Option{state.WithMaxRetries(cfg.Store.MaxRetries)}
	history := state.NewHistoryStore(store, log, opts...)
	prefs := state.NewPreferenceStore(store, log, cfg.Conversation.DefaultLanguage, opts...)
	engagement := state.NewEngagementStore(store, log, opts...)
	registry := state.NewRegistry(store, log, opts...)
	artifacts := state.NewArtifactStore(store, log, opts...)

	gen, err := ai.New(ctx, cfg.AI, log)
	if err != nil {
		log.Error("Failed to initialize generator", "provider", cfg.AI.Provider, "error", err)
		return 1
	}

	responder := orchestrator.New(history, prefs, gen, orchestrator.NewPromptBuilder(), orchestrator.Options{
		SystemInstruction: cfg.AI.SystemInstruction,
		WebSearch:         cfg.AI.WebSearch,
		Temperature:       cfg.Conversation.Temperature,
		Fallback:          cfg.Messages.GenerationError,
		DefaultLanguage:   cfg.Conversation.DefaultLanguage,
	}, log)

	// The broadcast needs the Telegram client and the router needs the
	// broadcast, so the default handler is bound after both exist.
	var router *handlers.Router
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log,
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			router.Handle(ctx, b, update)
		}),
	)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	sender := telegram.NewSender(tg, cfg.Telegram.MaxMessageLength)
	broadcaster := broadcast.New(gen, artifacts, registry, sender, broadcast.Options{
		SystemInstruction: cfg.AI.SystemInstruction,
		WebSearch:         cfg.AI.WebSearch,
		Language:          cfg.Conversation.DefaultLanguage,
		Temperature:       cfg.Broadcast.Temperature,
	}, log)

	router = handlers.NewRouter(handlers.Deps{
		Logger:      log,
		Config:      cfg,
		Registry:    registry,
		Engagement:  engagement,
		Preferences: prefs,
		Responder:   responder,
		Broadcaster: broadcaster,
	})

	if err := sender.SetCommands(ctx, handlers.Commands()); err != nil {
		log.Warn("Failed to publish command list", "error", err)
	}

	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:      log,
		Config:      cfg,
		Store:       store,
		Broadcaster: broadcaster,
		Registry:    registry,
	})
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, taskMap)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	var srv *http.Server
	if cfg.HTTP.Enabled {
		srv = server.New(cfg.HTTP.Addr, store, log)
	}

	app := bot.NewBot(log, tg, sched, srv)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
