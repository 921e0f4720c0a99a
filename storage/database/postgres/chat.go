package pgrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/chat"
)

type chatRepository struct {
	exec core.DBExecutor
}

var _ chat.Repository = (*chatRepository)(nil) // interface compliance check

func NewChatRepository(exec core.DBExecutor) *chatRepository {
	return &chatRepository{exec: exec}
}

type chatSessionRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Topic     string    `db:"topic"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r chatSessionRow) domain() chat.Session {
	return chat.Session(r)
}

type chatMessageRow struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	Sender    string    `db:"sender"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

func (r chatMessageRow) domain() chat.Message {
	return chat.Message(r)
}

type chatRuleRow struct {
	ID       string         `db:"id"`
	Keywords pq.StringArray `db:"keywords"`
	Reply    string         `db:"reply"`
	Priority int            `db:"priority"`
}

func (r chatRuleRow) domain() chat.Rule {
	return chat.Rule{ID: r.ID, Keywords: r.Keywords, Reply: r.Reply, Priority: r.Priority}
}

func (repo chatRepository) CreateSession(ctx context.Context, s chat.Session, exec ...core.DBExecutor) (chat.Session, error) {
	s.ID = uuid.New().String()
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `
		INSERT INTO chat_sessions (id, user_id, topic, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.UserID, s.Topic, s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	)
	if err != nil {
		return chat.Session{}, errors.Wrap(err, "inserting chat session")
	}
	return s, nil
}

func (repo chatRepository) GetSessionByID(ctx context.Context, id string, exec ...core.DBExecutor) (chat.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return chat.Session{}, chat.ErrSessionNotFound
	}
	var row chatSessionRow
	if err := getExec(repo.exec, exec).GetContext(ctx, &row, `SELECT * FROM chat_sessions WHERE id = $1`, id); err != nil {
		return chat.Session{}, trapNoRowsErr(err, chat.ErrSessionNotFound, "finding chat session by ID")
	}
	return row.domain(), nil
}

func (repo chatRepository) QuerySessions(ctx context.Context, userID string, exec ...core.DBExecutor) ([]chat.Session, error) {
	var rows []chatSessionRow
	err := getExec(repo.exec, exec).SelectContext(ctx, &rows,
		`SELECT * FROM chat_sessions WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying chat sessions")
	}
	sessions := make([]chat.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.domain())
	}
	return sessions, nil
}

func (repo chatRepository) CreateMessage(ctx context.Context, m chat.Message, exec ...core.DBExecutor) (chat.Message, error) {
	m.ID = uuid.New().String()
	exe := getExec(repo.exec, exec)
	_, err := exe.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, sender, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.SessionID, m.Sender, m.Body, m.CreatedAt.UTC(),
	)
	if err != nil {
		return chat.Message{}, errors.Wrap(err, "inserting chat message")
	}
	// bump the session so recent conversations sort first
	if _, err := exe.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at = $2 WHERE id = $1`, m.SessionID, m.CreatedAt.UTC()); err != nil {
		return chat.Message{}, errors.Wrap(err, "touching chat session")
	}
	return m, nil
}

func (repo chatRepository) QueryMessages(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]chat.Message, error) {
	var rows []chatMessageRow
	err := getExec(repo.exec, exec).SelectContext(ctx, &rows,
		`SELECT * FROM chat_messages WHERE session_id = $1 ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "querying chat messages")
	}
	msgs := make([]chat.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.domain())
	}
	return msgs, nil
}

func (repo chatRepository) QueryRules(ctx context.Context, exec ...core.DBExecutor) ([]chat.Rule, error) {
	var rows []chatRuleRow
	err := getExec(repo.exec, exec).SelectContext(ctx, &rows,
		`SELECT * FROM chat_rules ORDER BY priority DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying chat rules")
	}
	rules := make([]chat.Rule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, row.domain())
	}
	return rules, nil
}
