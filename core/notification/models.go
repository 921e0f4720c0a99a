package notification

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Notification kinds
const (
	KindInfo       = "info"
	KindAssignment = "assignment"
	KindEscalation = "escalation"
	KindCompletion = "completion"
)

// Notification is one in-app message on a user's bell.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ReadAt    null.Time `json:"read_at"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (n *Notification) IsRead() bool { return n.ReadAt.Valid }
