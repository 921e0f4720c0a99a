package campaign

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Reema362/avocop/core"
)

var (
	// errors
	ErrNotFound           = errors.New("campaign not found")
	ErrEscalationNotFound = errors.New("escalation not found")
	ErrNameExists         = errors.New("a campaign with this name already exists")
	ErrBadTransition      = errors.New("invalid campaign status transition")
)

// legal status transitions
var transitions = map[string][]string{
	StatusDraft:     {StatusScheduled, StatusActive},
	StatusScheduled: {StatusActive, StatusDraft},
	StatusActive:    {StatusPaused, StatusCompleted},
	StatusPaused:    {StatusActive, StatusCompleted},
}

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string, exec ...core.DBExecutor) error
		CreateCampaign(ctx context.Context, cmp Campaign, exec ...core.DBExecutor) (Campaign, error)
		QueryCampaigns(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Campaign, error)
		GetCampaignByID(ctx context.Context, id string, exec ...core.DBExecutor) (Campaign, error)
		UpdateCampaign(ctx context.Context, cmp Campaign, exec ...core.DBExecutor) (Campaign, error)
		DeleteCampaignsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
		// QueryExpiredActive lists active campaigns whose end date passed.
		QueryExpiredActive(ctx context.Context, asOf time.Time, exec ...core.DBExecutor) ([]Campaign, error)

		CreateEscalation(ctx context.Context, esc Escalation, exec ...core.DBExecutor) (Escalation, error)
		QueryEscalations(ctx context.Context, campaignID string, exec ...core.DBExecutor) ([]Escalation, error)
		GetEscalationByID(ctx context.Context, id string, exec ...core.DBExecutor) (Escalation, error)
		UpdateEscalation(ctx context.Context, esc Escalation, exec ...core.DBExecutor) (Escalation, error)
	}

	// Notifier is told about raised escalations (mail/webhook fan-out lives
	// in the notification service).
	Notifier interface {
		EscalationRaised(ctx context.Context, cmp Campaign, esc Escalation)
	}

	Service struct {
		repo     Repository
		notifier Notifier
		log      core.Logger
	}
)

func NewService(repo Repository, notifier Notifier, log core.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, log: log}
}

func (svc *Service) CheckNameUniqueness(ctx context.Context, name string) error {
	if err := svc.repo.CheckNameUniqueness(ctx, name); err != nil {
		if errors.Is(err, ErrNameExists) {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewCampaign, createdBy string) (Campaign, error) {
	now := time.Now().UTC()
	cmp := Campaign{
		Name:        nc.Name,
		Description: nc.Description,
		Type:        nc.Type,
		Status:      StatusDraft,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if nc.StartAt != nil {
		cmp.StartAt = null.TimeFrom(nc.StartAt.UTC())
	}
	if nc.EndAt != nil {
		cmp.EndAt = null.TimeFrom(nc.EndAt.UTC())
	}
	return svc.repo.CreateCampaign(ctx, cmp)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Campaign, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryCampaigns(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Campaign, error) {
	return svc.repo.GetCampaignByID(ctx, id)
}

// Transition moves a campaign to a new status, enforcing the legal transitions.
func (svc *Service) Transition(ctx context.Context, id, status string) (Campaign, error) {
	cmp, err := svc.repo.GetCampaignByID(ctx, id)
	if err != nil {
		return Campaign{}, err
	}

	allowed := false
	for _, s := range transitions[cmp.Status] {
		if s == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return Campaign{}, ErrBadTransition
	}

	cmp.Status = status
	cmp.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCampaign(ctx, cmp)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteCampaignsByID(ctx, ids)
	return err
}

// Escalate raises an escalation on a campaign and notifies the configured channels.
func (svc *Service) Escalate(ctx context.Context, campaignID string, ne NewEscalation) (Escalation, error) {
	cmp, err := svc.repo.GetCampaignByID(ctx, campaignID)
	if err != nil {
		return Escalation{}, err
	}

	esc := Escalation{
		CampaignID: cmp.ID,
		UserID:     ne.UserID,
		Level:      ne.Level,
		Status:     EscalationOpen,
		Reason:     ne.Reason,
		CreatedAt:  time.Now().UTC(),
	}
	esc, err = svc.repo.CreateEscalation(ctx, esc)
	if err != nil {
		return Escalation{}, err
	}
	if svc.notifier != nil {
		svc.notifier.EscalationRaised(ctx, cmp, esc)
	}
	return esc, nil
}

func (svc *Service) Escalations(ctx context.Context, campaignID string) ([]Escalation, error) {
	return svc.repo.QueryEscalations(ctx, campaignID)
}

func (svc *Service) Acknowledge(ctx context.Context, escalationID string) (Escalation, error) {
	esc, err := svc.repo.GetEscalationByID(ctx, escalationID)
	if err != nil {
		return Escalation{}, err
	}
	if esc.Status == EscalationOpen {
		esc.Status = EscalationAcknowledged
		esc.AcknowledgedAt = null.TimeFrom(time.Now().UTC())
	}
	return svc.repo.UpdateEscalation(ctx, esc)
}

func (svc *Service) Resolve(ctx context.Context, escalationID string) (Escalation, error) {
	esc, err := svc.repo.GetEscalationByID(ctx, escalationID)
	if err != nil {
		return Escalation{}, err
	}
	if esc.Status != EscalationResolved {
		esc.Status = EscalationResolved
		esc.ResolvedAt = null.TimeFrom(time.Now().UTC())
	}
	return svc.repo.UpdateEscalation(ctx, esc)
}

// SweepExpired completes active campaigns whose end date passed. Returns how
// many were closed.
func (svc *Service) SweepExpired(ctx context.Context) (int, error) {
	expired, err := svc.repo.QueryExpiredActive(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	var n int
	for _, cmp := range expired {
		cmp.Status = StatusCompleted
		cmp.UpdatedAt = time.Now().UTC()
		if _, err := svc.repo.UpdateCampaign(ctx, cmp); err != nil {
			svc.log.Error("campaign: closing expired campaign failed", err)
			continue
		}
		n++
	}
	return n, nil
}
