package notify

import (
	"context"
	"database/sql"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/campusbook/classwork/internal/db"
	"github.com/campusbook/classwork/internal/metrics"
	"github.com/campusbook/classwork/internal/observability"
)

// Telegram delivers notifications to users who linked a chat. Users
// without a linked chat are skipped silently.
type Telegram struct {
	Bot *tgbotapi.BotAPI
	DB  *sql.DB
	Log *zap.SugaredLogger
}

func NewTelegram(bot *tgbotapi.BotAPI, database *sql.DB, log *zap.SugaredLogger) *Telegram {
	return &Telegram{Bot: bot, DB: database, Log: log}
}

func (t *Telegram) Notify(ctx context.Context, n Notification) {
	chatID, ok, err := db.GetNotificationChat(ctx, t.DB, n.Recipient)
	if err != nil {
		t.fail("resolve chat", n, err)
		return
	}
	if !ok {
		return
	}
	msg := tgbotapi.NewMessage(chatID, n.Title+"\n\n"+n.Message)
	if _, err := t.Bot.Send(msg); err != nil {
		t.fail("send", n, err)
	}
}

func (t *Telegram) fail(stage string, n Notification, err error) {
	metrics.NotifyFailures.Inc()
	t.Log.Warnw("notification delivery failed", "stage", stage, "recipient", n.Recipient, "err", err)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
}

// System errors (5xx, 429, timeouts) go to sentry; ordinary Bad Request
// style rejections only hit the log.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	if strings.Contains(s, "429") || strings.Contains(s, "502") || strings.Contains(s, "503") || strings.Contains(s, "timeout") {
		return true
	}
	return false
}
