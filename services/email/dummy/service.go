// Package dummymail records sent messages in memory for tests.
package dummymail

import (
	"sync"

	"github.com/Reema362/avocop/core"
)

type service struct {
	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailService = (*service)(nil)

func NewService() *service {
	return &service{}
}

func (svc *service) SendMessages(messages ...*core.EmailMessage) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, msg := range messages {
		if err := msg.Render(); err != nil {
			continue
		}
		if msg.HasRecipients() && (msg.HasContent() || msg.HasAttachments()) {
			svc.sent = append(svc.sent, *msg)
		}
	}
}

// SentMessages returns a copy of everything recorded so far.
func (svc *service) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]core.EmailMessage, len(svc.sent))
	copy(out, svc.sent)
	return out
}

// Reset clears the recorded messages.
func (svc *service) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = nil
}
