package alert

import (
	"fmt"
	"strings"
	"time"
)

// TelegramTarget holds the bot credential and chat a notification is sent to.
// Alerts reference a target; a target cannot be deleted while referenced.
type TelegramTarget struct {
	ID        int64
	BotToken  string
	ChatID    string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks required fields before the target is persisted.
func (t TelegramTarget) Validate() error {
	if strings.TrimSpace(t.BotToken) == "" {
		return fmt.Errorf("bot_token is required")
	}
	if strings.TrimSpace(t.ChatID) == "" {
		return fmt.Errorf("chat_id is required")
	}
	return nil
}
