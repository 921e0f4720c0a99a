package campaign_test

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reema362/avocop/core/campaign"
	logsvc "github.com/Reema362/avocop/services/logger"
	dummydb "github.com/Reema362/avocop/storage/database/dummy"
)

type notifierRecorder struct {
	sync.Mutex
	raised []campaign.Escalation
}

func (r *notifierRecorder) EscalationRaised(_ context.Context, _ campaign.Campaign, esc campaign.Escalation) {
	r.Lock()
	defer r.Unlock()
	r.raised = append(r.raised, esc)
}

func newTestService(t *testing.T) (*campaign.Service, *notifierRecorder) {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	rec := new(notifierRecorder)
	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	return campaign.NewService(dummydb.NewCampaignRepository(db), rec, logger), rec
}

func createCampaign(t *testing.T, svc *campaign.Service, nc campaign.NewCampaign) campaign.Campaign {
	t.Helper()
	cmp, err := svc.Create(context.Background(), nc, "admin-id")
	require.NoError(t, err)
	return cmp
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		path    []string
		wantErr bool
	}{
		{"draft to active", []string{campaign.StatusActive}, false},
		{"draft to scheduled to active", []string{campaign.StatusScheduled, campaign.StatusActive}, false},
		{"active pauses and resumes", []string{campaign.StatusActive, campaign.StatusPaused, campaign.StatusActive}, false},
		{"active completes", []string{campaign.StatusActive, campaign.StatusCompleted}, false},
		{"draft cannot complete", []string{campaign.StatusCompleted}, true},
		{"draft cannot pause", []string{campaign.StatusPaused}, true},
		{"completed is terminal", []string{campaign.StatusActive, campaign.StatusCompleted, campaign.StatusActive}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, _ := newTestService(t)
			cmp := createCampaign(t, svc, campaign.NewCampaign{Name: "Q3 Awareness", Type: campaign.TypeAwareness})

			var err error
			for _, status := range tt.path {
				cmp, err = svc.Transition(ctx, cmp.ID, status)
				if err != nil {
					break
				}
			}
			if tt.wantErr {
				assert.ErrorIs(t, err, campaign.ErrBadTransition)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.path[len(tt.path)-1], cmp.Status)
			}
		})
	}
}

func TestCreate_duplicateName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	createCampaign(t, svc, campaign.NewCampaign{Name: "Q3 Awareness", Type: campaign.TypeAwareness})

	nc := campaign.NewCampaign{Name: "q3 awareness", Type: campaign.TypeTraining}
	err := nc.Validate(ctx, svc)
	assert.Error(t, err)
}

func TestEscalate_notifiesChannels(t *testing.T) {
	ctx := context.Background()
	svc, rec := newTestService(t)
	cmp := createCampaign(t, svc, campaign.NewCampaign{Name: "Phish Sim", Type: campaign.TypePhishing})

	esc, err := svc.Escalate(ctx, cmp.ID, campaign.NewEscalation{
		UserID: "usr1", Level: campaign.LevelHigh, Reason: "clicked 3 simulated phishing links",
	})
	require.NoError(t, err)
	assert.Equal(t, campaign.EscalationOpen, esc.Status)

	require.Len(t, rec.raised, 1)
	assert.Equal(t, esc.ID, rec.raised[0].ID)
}

func TestEscalationLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	cmp := createCampaign(t, svc, campaign.NewCampaign{Name: "Phish Sim", Type: campaign.TypePhishing})

	esc, err := svc.Escalate(ctx, cmp.ID, campaign.NewEscalation{
		UserID: "usr1", Level: campaign.LevelCritical, Reason: "repeated failures",
	})
	require.NoError(t, err)

	esc, err = svc.Acknowledge(ctx, esc.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.EscalationAcknowledged, esc.Status)
	require.True(t, esc.AcknowledgedAt.Valid)
	ackAt := esc.AcknowledgedAt.Time

	// acknowledging again is a no-op
	esc, err = svc.Acknowledge(ctx, esc.ID)
	require.NoError(t, err)
	assert.Equal(t, ackAt, esc.AcknowledgedAt.Time)

	esc, err = svc.Resolve(ctx, esc.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.EscalationResolved, esc.Status)
	assert.True(t, esc.ResolvedAt.Valid)
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	past := time.Now().Add(-time.Hour).UTC()
	future := time.Now().Add(time.Hour).UTC()

	expired := createCampaign(t, svc, campaign.NewCampaign{Name: "Old push", Type: campaign.TypeAwareness, EndAt: &past})
	running := createCampaign(t, svc, campaign.NewCampaign{Name: "New push", Type: campaign.TypeAwareness, EndAt: &future})
	for _, cmp := range []campaign.Campaign{expired, running} {
		_, err := svc.Transition(ctx, cmp.ID, campaign.StatusActive)
		require.NoError(t, err)
	}

	n, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cmp, err := svc.GetByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusCompleted, cmp.Status)

	cmp, err = svc.GetByID(ctx, running.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusActive, cmp.Status)
}
