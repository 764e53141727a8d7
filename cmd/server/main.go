package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/campusbook/classwork/internal/analytics"
	"github.com/campusbook/classwork/internal/api"
	"github.com/campusbook/classwork/internal/assignment"
	"github.com/campusbook/classwork/internal/classroom"
	"github.com/campusbook/classwork/internal/config"
	"github.com/campusbook/classwork/internal/db"
	"github.com/campusbook/classwork/internal/jobs"
	"github.com/campusbook/classwork/internal/logging"
	"github.com/campusbook/classwork/internal/notify"
	"github.com/campusbook/classwork/internal/observability"
	"github.com/campusbook/classwork/internal/records"
	"github.com/campusbook/classwork/internal/submission"
)

var release = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer lg.Closer()
	sugar := lg.Sugar

	flushSentry, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, release)
	if err != nil {
		sugar.Warnw("sentry init failed", "err", err)
	}
	defer flushSentry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalw("database", "err", err)
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(database); err != nil {
		sugar.Fatalw("migrations", "err", err)
	}

	var notifier notify.Notifier = notify.NewConsole(sugar)
	if cfg.BotToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			sugar.Warnw("telegram bot unavailable, falling back to console notifications", "err", err)
		} else {
			sugar.Infow("telegram notifications enabled", "bot", bot.Self.UserName)
			notifier = notify.NewTelegram(bot, database, sugar)
		}
	}

	app := &api.API{
		DB:          database,
		Log:         sugar,
		Classrooms:  classroom.NewService(database, sugar),
		Assignments: assignment.NewService(database, sugar, notifier),
		Submissions: submission.NewService(database, sugar, notifier),
		Records:     records.NewService(database, sugar),
		Analytics:   analytics.NewService(database),
	}

	api.StartHTTP(ctx, cfg.HTTPAddr, app.Router())
	sugar.Infow("http server started", "addr", cfg.HTTPAddr, "env", cfg.Env)

	runner := jobs.New(ctx)
	reminder := jobs.NewDueReminder(database, notifier)
	runner.Every(time.Hour, "due_reminders", reminder.Run)

	<-ctx.Done()
	sugar.Info("shutting down")
	time.Sleep(time.Second)
}
