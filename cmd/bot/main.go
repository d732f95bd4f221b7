// Package main contains the entrypoint for the survey bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/dymbot/internal/admin"
	"github.com/edgard/dymbot/internal/bot"
	"github.com/edgard/dymbot/internal/bot/handlers"
	"github.com/edgard/dymbot/internal/bot/tasks"
	"github.com/edgard/dymbot/internal/broadcast"
	"github.com/edgard/dymbot/internal/config"
	"github.com/edgard/dymbot/internal/database"
	"github.com/edgard/dymbot/internal/dispatch"
	"github.com/edgard/dymbot/internal/gemini"
	"github.com/edgard/dymbot/internal/intent"
	"github.com/edgard/dymbot/internal/logger"
	"github.com/edgard/dymbot/internal/metrics"
	"github.com/edgard/dymbot/internal/relay"
	"github.com/edgard/dymbot/internal/role"
	"github.com/edgard/dymbot/internal/session"
	"github.com/edgard/dymbot/internal/survey"
	"github.com/edgard/dymbot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, blocks until shutdown and returns the exit code.
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

	db, err := database.NewDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Error("Failed to connect to database", "driver", cfg.Database.Driver, "dsn", database.RedactDSN(cfg.Database.DSN), "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	if _, err := store.InsertAdmin(ctx, &database.Admin{
		UserID:   cfg.Telegram.SuperAdminID,
		Username: cfg.Telegram.SuperAdminUsername,
		AddedBy:  cfg.Telegram.SuperAdminID,
	}); err != nil {
		log.Error("Failed to register super-admin", "user_id", cfg.Telegram.SuperAdminID, "error", err)
		return 1
	}

	var digester admin.Digester
	if cfg.Gemini.APIKey != "" {
		gemClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
		if err != nil {
			log.Error("Failed to initialize Gemini client", "error", err)
			return 1
		}
		digester = gemClient
	} else {
		log.Info("Gemini API key not set, feedback digest disabled")
	}

	m := metrics.New()
	sessions := session.NewStore(cfg.Session.TTL)
	classifier := role.NewClassifier(cfg.Telegram.SuperAdminID, store, log)

	// Updates only flow once the listener starts, after the dispatcher is built.
	var dispatcher *dispatch.Dispatcher
	hDeps := handlers.HandlerDeps{
		Logger: log,
		Dispatcher: handlers.DispatcherFunc(func(ctx context.Context, ev intent.Event) {
			dispatcher.Handle(ctx, ev)
		}),
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewDefaultHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	msgr := telegram.NewMessenger(tg, log)
	rel := relay.New(relay.Deps{
		Logger: log, Config: cfg, Store: store, Messenger: msgr, Sessions: sessions, Metrics: m,
	})
	dispatcher = dispatch.New(dispatch.Deps{
		Logger:     log,
		Config:     cfg,
		Sessions:   sessions,
		Classifier: classifier,
		Messenger:  msgr,
		Metrics:    m,
		Survey: survey.New(survey.Deps{
			Logger: log, Config: cfg, Store: store, Messenger: msgr, Sessions: sessions, Notifier: rel, Metrics: m,
		}),
		Relay: rel,
		Broadcast: broadcast.New(broadcast.Deps{
			Logger: log, Config: cfg, Store: store, Messenger: msgr, Sessions: sessions, Notifier: rel, Metrics: m,
		}),
		Admin: admin.New(admin.Deps{
			Logger: log, Config: cfg, Store: store, Messenger: msgr, Sessions: sessions, Notifier: rel,
			Digester: digester, Metrics: m,
		}),
	})

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:   log,
		Store:    store,
		Sessions: sessions,
		Config:   cfg,
	}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	var observability bot.Runner
	if cfg.Metrics.Address != "" {
		observability = metrics.NewServer(cfg.Metrics.Address, m, store, log)
	}

	app := bot.NewBot(log, tg, sched, observability)

	log.Info("Starting bot...", "super_admin_id", cfg.Telegram.SuperAdminID)
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
