package chat_test

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reema362/avocop/core/chat"
	logsvc "github.com/Reema362/avocop/services/logger"
	dummydb "github.com/Reema362/avocop/storage/database/dummy"
)

var testRules = []chat.Rule{
	{ID: "r1", Keywords: []string{"phishing", "suspicious email"}, Reply: "Report it to your security team.", Priority: 100},
	{ID: "r2", Keywords: []string{"password"}, Reply: "Use a unique passphrase and MFA.", Priority: 90},
	{ID: "r3", Keywords: []string{"course", "training"}, Reply: "Check My Courses for assigned training.", Priority: 50},
}

func TestReply(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"keyword match", "I think I got a phishing mail", "Report it to your security team."},
		{"match is case-insensitive", "PASSWORD help please", "Use a unique passphrase and MFA."},
		{"multi-word keyword", "there is a suspicious email in my inbox", "Report it to your security team."},
		{"higher priority wins", "phishing mail asking for my password", "Report it to your security team."},
		{"no match falls back", "what is the meaning of life", "I can help with courses, campaigns and quizzes. Try asking about one of those, or contact your security team."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chat.Reply(testRules, tt.msg))
		})
	}
}

func TestRespond(t *testing.T) {
	ctx := context.Background()
	db, err := dummydb.Open()
	require.NoError(t, err)
	dummydb.SeedRules(db, testRules...)

	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	svc := chat.NewService(dummydb.NewChatRepository(db), logger)

	session, err := svc.StartSession(ctx, "usr1", "help")
	require.NoError(t, err)

	reply, err := svc.Respond(ctx, session.ID, chat.NewMessage{Body: "how do I report phishing?"})
	require.NoError(t, err)
	assert.Equal(t, chat.SenderAssistant, reply.Sender)
	assert.Equal(t, "Report it to your security team.", reply.Body)

	// both sides of the exchange are stored in order
	msgs, err := svc.Messages(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.SenderUser, msgs[0].Sender)
	assert.Equal(t, "how do I report phishing?", msgs[0].Body)
	assert.Equal(t, reply.Body, msgs[1].Body)
}

func TestRespond_unknownSession(t *testing.T) {
	db, err := dummydb.Open()
	require.NoError(t, err)

	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	svc := chat.NewService(dummydb.NewChatRepository(db), logger)

	_, err = svc.Respond(context.Background(), "nope", chat.NewMessage{Body: "hello"})
	assert.ErrorIs(t, err, chat.ErrSessionNotFound)
}
