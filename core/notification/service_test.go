package notification_test

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reema362/avocop/core/campaign"
	"github.com/Reema362/avocop/core/notification"
	"github.com/Reema362/avocop/core/user"
	dummymail "github.com/Reema362/avocop/services/email/dummy"
	logsvc "github.com/Reema362/avocop/services/logger"
	dummydb "github.com/Reema362/avocop/storage/database/dummy"
)

// webhookRecorder records sent events, optionally failing every call.
type webhookRecorder struct {
	events []string
	err    error
}

func (w *webhookRecorder) Send(_ context.Context, event string, _ interface{}) error {
	w.events = append(w.events, event)
	return w.err
}

type testEnv struct {
	svc     *notification.Service
	usrSvc  *user.Service
	webhook *webhookRecorder
}

func newTestEnv(t *testing.T, webhookErr error) *testEnv {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	mailSvc := dummymail.NewService()
	usrSvc := user.NewService(dummydb.NewUserRepository(db), mailSvc, logger)
	webhook := &webhookRecorder{err: webhookErr}
	return &testEnv{
		svc:     notification.NewService(dummydb.NewNotificationRepository(db), usrSvc, mailSvc, webhook, logger),
		usrSvc:  usrSvc,
		webhook: webhook,
	}
}

func (env *testEnv) createUser(t *testing.T) user.User {
	t.Helper()
	usr, err := env.usrSvc.Create(context.Background(), user.NewUser{
		Name:            "Awe Some",
		Username:        "awesome",
		Email:           "awe@corp.test",
		Password:        "v3ryS3cretPwd!",
		PasswordConfirm: "v3ryS3cretPwd!",
	})
	require.NoError(t, err)
	return usr
}

func TestNotify(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	usr := env.createUser(t)

	n, err := env.svc.Notify(ctx, usr.ID, notification.KindAssignment, "New course assigned", "Phishing 101 is due Friday.")
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.IsRead())

	unread, err := env.svc.Query(ctx, usr.ID, true /* unreadOnly */)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "New course assigned", unread[0].Title)
}

func TestMarkRead_setsOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	usr := env.createUser(t)

	n, err := env.svc.Notify(ctx, usr.ID, notification.KindInfo, "Welcome", "")
	require.NoError(t, err)

	n, err = env.svc.MarkRead(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, n.ReadAt.Valid)
	readAt := n.ReadAt.Time

	// marking again keeps the original timestamp
	n, err = env.svc.MarkRead(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, readAt, n.ReadAt.Time)

	unread, err := env.svc.Query(ctx, usr.ID, true /* unreadOnly */)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestEscalationRaised_fansOut(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	usr := env.createUser(t)

	cmp := campaign.Campaign{ID: "cmp1", Name: "Q3 Awareness", Status: campaign.StatusActive}
	esc := campaign.Escalation{CampaignID: cmp.ID, UserID: usr.ID, Level: campaign.LevelHigh, Reason: "clicked a phishing link"}

	env.svc.EscalationRaised(ctx, cmp, esc)

	notifs, err := env.svc.Query(ctx, usr.ID, false)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, notification.KindEscalation, notifs[0].Kind)
	assert.Contains(t, notifs[0].Title, cmp.Name)

	assert.Equal(t, []string{"escalation.raised"}, env.webhook.events)
}

func TestEscalationRaised_webhookFailureDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, errors.New("webhook endpoint unreachable"))
	usr := env.createUser(t)

	cmp := campaign.Campaign{ID: "cmp1", Name: "Q3 Awareness", Status: campaign.StatusActive}
	esc := campaign.Escalation{CampaignID: cmp.ID, UserID: usr.ID, Level: campaign.LevelCritical, Reason: "repeated offender"}

	env.svc.EscalationRaised(ctx, cmp, esc)

	// the bell notification landed even though the webhook channel failed
	notifs, err := env.svc.Query(ctx, usr.ID, false)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, notification.KindEscalation, notifs[0].Kind)
	require.Len(t, env.webhook.events, 1)
}
