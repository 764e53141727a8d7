package notify

import (
	"context"

	"go.uber.org/zap"
)

// Console writes notifications to the log. Used in dev and as the
// fallback when no messenger is configured.
type Console struct {
	Log *zap.SugaredLogger
}

func NewConsole(log *zap.SugaredLogger) *Console { return &Console{Log: log} }

func (c *Console) Notify(_ context.Context, n Notification) {
	c.Log.Infow("notification",
		"recipient", n.Recipient,
		"category", n.Category,
		"title", n.Title,
		"message", n.Message,
		"related_id", n.RelatedID,
	)
}
