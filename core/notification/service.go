package notification

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/campaign"
	"github.com/Reema362/avocop/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("notification not found")
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification, exec ...core.DBExecutor) (Notification, error)
		QueryNotifications(ctx context.Context, userID string, unreadOnly bool, exec ...core.DBExecutor) ([]Notification, error)
		GetNotificationByID(ctx context.Context, id string, exec ...core.DBExecutor) (Notification, error)
		UpdateNotification(ctx context.Context, n Notification, exec ...core.DBExecutor) (Notification, error)
	}

	// WebhookSender posts escalation events to an external channel (Slack,
	// SIEM, ...). Implementations live under services/webhook.
	WebhookSender interface {
		Send(ctx context.Context, event string, payload interface{}) error
	}

	Service struct {
		repo    Repository
		users   *user.Service
		mail    core.EmailService
		webhook WebhookSender
		log     core.Logger
	}
)

var _ campaign.Notifier = (*Service)(nil) // interface compliance check

func NewService(repo Repository, userSvc *user.Service, mailSvc core.EmailService, webhook WebhookSender, log core.Logger) *Service {
	return &Service{repo: repo, users: userSvc, mail: mailSvc, webhook: webhook, log: log}
}

// Notify stores an in-app notification and emails the user if they have an
// email address.
func (svc *Service) Notify(ctx context.Context, userID, kind, title, body string) (Notification, error) {
	n := Notification{
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	n, err := svc.repo.CreateNotification(ctx, n)
	if err != nil {
		return Notification{}, err
	}

	if usr, err := svc.users.GetByID(ctx, userID); err == nil && usr.Email != "" {
		svc.mail.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      title,
			TemplateName: "notification",
			TemplateData: struct {
				User  user.User
				Title string
				Body  string
			}{usr, title, body},
		})
	}
	return n, nil
}

func (svc *Service) Query(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx, userID, unreadOnly)
}

func (svc *Service) Get(ctx context.Context, id string) (Notification, error) {
	return svc.repo.GetNotificationByID(ctx, id)
}

func (svc *Service) MarkRead(ctx context.Context, id string) (Notification, error) {
	n, err := svc.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if !n.ReadAt.Valid {
		n.ReadAt.SetValid(time.Now().UTC())
		return svc.repo.UpdateNotification(ctx, n)
	}
	return n, nil
}

// EscalationRaised fans an escalation out to the in-app bell, email and the
// configured webhook. Channel failures are logged, never propagated: an
// unreachable webhook must not fail the escalation itself.
func (svc *Service) EscalationRaised(ctx context.Context, cmp campaign.Campaign, esc campaign.Escalation) {
	title := fmt.Sprintf("Escalation raised on campaign %q", cmp.Name)
	body := fmt.Sprintf("Level %s: %s", esc.Level, esc.Reason)

	if _, err := svc.Notify(ctx, esc.UserID, KindEscalation, title, body); err != nil {
		svc.log.Error("notification: storing escalation notification failed", err)
	}

	if svc.webhook != nil {
		if err := svc.webhook.Send(ctx, "escalation.raised", struct {
			Campaign   string `json:"campaign"`
			CampaignID string `json:"campaign_id"`
			UserID     string `json:"user_id"`
			Level      string `json:"level"`
			Reason     string `json:"reason"`
		}{cmp.Name, cmp.ID, esc.UserID, esc.Level, esc.Reason}); err != nil {
			svc.log.Error("notification: escalation webhook failed", err)
		}
	}
}
