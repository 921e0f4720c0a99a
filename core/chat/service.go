package chat

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Reema362/avocop/core"
)

var (
	// errors
	ErrSessionNotFound = errors.New("chat session not found")

	// fallbackReply is used when no rule matches.
	fallbackReply = "I can help with courses, campaigns and quizzes. Try asking about one of those, or contact your security team."
)

type (
	Repository interface {
		CreateSession(ctx context.Context, s Session, exec ...core.DBExecutor) (Session, error)
		GetSessionByID(ctx context.Context, id string, exec ...core.DBExecutor) (Session, error)
		QuerySessions(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Session, error)

		CreateMessage(ctx context.Context, m Message, exec ...core.DBExecutor) (Message, error)
		QueryMessages(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]Message, error)

		QueryRules(ctx context.Context, exec ...core.DBExecutor) ([]Rule, error)
	}

	Service struct {
		repo Repository
		log  core.Logger
	}
)

func NewService(repo Repository, log core.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (svc *Service) StartSession(ctx context.Context, userID, topic string) (Session, error) {
	now := time.Now().UTC()
	s := Session{
		UserID:    userID,
		Topic:     core.CleanString(topic),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSession(ctx, s)
}

func (svc *Service) Session(ctx context.Context, id string) (Session, error) {
	return svc.repo.GetSessionByID(ctx, id)
}

func (svc *Service) Sessions(ctx context.Context, userID string) ([]Session, error) {
	return svc.repo.QuerySessions(ctx, userID)
}

func (svc *Service) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	if _, err := svc.repo.GetSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return svc.repo.QueryMessages(ctx, sessionID)
}

// Respond stores the user message and the scripted assistant reply, returning
// the reply message.
func (svc *Service) Respond(ctx context.Context, sessionID string, nm NewMessage) (Message, error) {
	session, err := svc.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return Message{}, err
	}

	now := time.Now().UTC()
	if _, err := svc.repo.CreateMessage(ctx, Message{
		SessionID: session.ID,
		Sender:    SenderUser,
		Body:      nm.Body,
		CreatedAt: now,
	}); err != nil {
		return Message{}, err
	}

	rules, err := svc.repo.QueryRules(ctx)
	if err != nil {
		return Message{}, errors.Wrap(err, "loading chat rules")
	}

	return svc.repo.CreateMessage(ctx, Message{
		SessionID: session.ID,
		Sender:    SenderAssistant,
		Body:      Reply(rules, nm.Body),
		CreatedAt: now.Add(time.Millisecond), // sorts after the prompt
	})
}

// Reply picks the highest-priority rule with any keyword contained in the
// message (case-insensitive substring match); a stock reply covers the rest.
func Reply(rules []Rule, msg string) string {
	lmsg := strings.ToLower(msg)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(lmsg, strings.ToLower(kw)) {
				return rule.Reply
			}
		}
	}
	return fallbackReply
}
