package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/chat"
)

type chatRepository struct {
	db *chatTable
}

var _ chat.Repository = (*chatRepository)(nil) // interface compliance check

func NewChatRepository(db *DB) chat.Repository {
	return &chatRepository{db: db.chat}
}

// SeedRules loads scripted-reply rules for tests and local development.
func SeedRules(db *DB, rules ...chat.Rule) {
	db.chat.Lock()
	defer db.chat.Unlock()
	for _, rule := range rules {
		if rule.ID == "" {
			rule.ID = uuid.New().String()
		}
		r := rule
		db.chat.rules[r.ID] = &r
	}
}

func (repo *chatRepository) CreateSession(ctx context.Context, s chat.Session, exec ...core.DBExecutor) (chat.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = uuid.New().String()
	repo.db.sessions[s.ID] = &s
	return s, nil
}

func (repo *chatRepository) GetSessionByID(ctx context.Context, id string, exec ...core.DBExecutor) (chat.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.sessions[id]; ok {
		return *s, nil
	}
	return chat.Session{}, chat.ErrSessionNotFound
}

func (repo *chatRepository) QuerySessions(ctx context.Context, userID string, exec ...core.DBExecutor) ([]chat.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var sessions []chat.Session
	for _, s := range repo.db.sessions {
		if s.UserID == userID {
			sessions = append(sessions, *s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt) })
	return sessions, nil
}

func (repo *chatRepository) CreateMessage(ctx context.Context, m chat.Message, exec ...core.DBExecutor) (chat.Message, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	m.ID = uuid.New().String()
	repo.db.messages[m.ID] = &m
	if s, ok := repo.db.sessions[m.SessionID]; ok {
		s.UpdatedAt = m.CreatedAt
	}
	return m, nil
}

func (repo *chatRepository) QueryMessages(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]chat.Message, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var msgs []chat.Message
	for _, m := range repo.db.messages {
		if m.SessionID == sessionID {
			msgs = append(msgs, *m)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}

func (repo *chatRepository) QueryRules(ctx context.Context, exec ...core.DBExecutor) ([]chat.Rule, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rules := make([]chat.Rule, 0, len(repo.db.rules))
	for _, rule := range repo.db.rules {
		rules = append(rules, *rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
	return rules, nil
}
