// Package webhooksvc posts escalation events to an external HTTP endpoint
// (Slack relay, SIEM collector, ...).
package webhooksvc

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/Reema362/avocop/core/notification"
)

type sender struct {
	client *resty.Client
	url    string
}

var _ notification.WebhookSender = (*sender)(nil)

func NewSender(url string) notification.WebhookSender {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &sender{client: client, url: url}
}

type event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

func (s *sender) Send(ctx context.Context, name string, payload interface{}) error {
	if s.url == "" {
		return nil
	}
	res, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(event{Event: name, Payload: payload, SentAt: time.Now().UTC()}).
		Post(s.url)
	if err != nil {
		return errors.Wrap(err, "posting webhook")
	}
	if res.IsError() {
		return errors.Errorf("webhook endpoint responded %d", res.StatusCode())
	}
	return nil
}
