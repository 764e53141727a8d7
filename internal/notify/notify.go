// Package notify delivers best-effort notifications. The engine treats
// delivery as fire-and-forget: implementations log and count failures but
// never surface them to the operation that triggered the message.
package notify

import "context"

type Notification struct {
	Recipient int64 // platform user id
	Title     string
	Message   string
	Category  string // "assignment" | "submission" | "grade" | "reminder"
	RelatedID int64
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
