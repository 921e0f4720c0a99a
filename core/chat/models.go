package chat

import (
	"time"

	"github.com/Reema362/avocop/core"
)

// Message senders
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Rule maps keywords to a scripted reply. Rules are stored in the database;
// the first rule (by priority) with any keyword contained in the incoming
// message wins.
type Rule struct {
	ID       string   `json:"id"`
	Keywords []string `json:"keywords"`
	Reply    string   `json:"reply"`
	Priority int      `json:"priority"`
}

type NewMessage struct {
	Body string `json:"body" validate:"required"`
}

func (nm *NewMessage) Validate() error {
	nm.Body = core.CleanString(nm.Body)
	return core.Validate.Struct(nm)
}
