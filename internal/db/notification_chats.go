package db

import (
	"context"
	"database/sql"
)

// GetNotificationChat resolves a platform user to their messenger chat.
// ok=false when the user never linked one.
func GetNotificationChat(ctx context.Context, database *sql.DB, userID int64) (int64, bool, error) {
	var chatID int64
	err := database.QueryRowContext(ctx, `
		SELECT chat_id FROM notification_chats WHERE user_id = $1
	`, userID).Scan(&chatID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return chatID, true, nil
}

func UpsertNotificationChat(ctx context.Context, database *sql.DB, userID, chatID int64) error {
	_, err := database.ExecContext(ctx, `
		INSERT INTO notification_chats (user_id, chat_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET chat_id = EXCLUDED.chat_id
	`, userID, chatID)
	return err
}
