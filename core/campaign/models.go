package campaign

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/Reema362/avocop/core"
)

// Campaign statuses
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
)

// Campaign types
const (
	TypeAwareness = "awareness"
	TypePhishing  = "phishing-simulation"
	TypeTraining  = "training"
)

// Escalation levels
const (
	LevelLow      = "low"
	LevelMedium   = "medium"
	LevelHigh     = "high"
	LevelCritical = "critical"
)

// Escalation statuses
const (
	EscalationOpen         = "open"
	EscalationAcknowledged = "acknowledged"
	EscalationResolved     = "resolved"
)

type Campaign struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	StartAt     null.Time `json:"start_at"`
	EndAt       null.Time `json:"end_at"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type Escalation struct {
	ID             string    `json:"id"`
	CampaignID     string    `json:"campaign_id"`
	UserID         string    `json:"user_id"`
	Level          string    `json:"level"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason"`
	AcknowledgedAt null.Time `json:"acknowledged_at"`
	ResolvedAt     null.Time `json:"resolved_at"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// NewCampaign contains information needed to create a new Campaign.
type NewCampaign struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	Type        string     `json:"type" validate:"required,oneof=awareness phishing-simulation training"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
}

func (nc *NewCampaign) Validate(ctx context.Context, svc *Service) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)

	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	if nc.StartAt != nil && nc.EndAt != nil && nc.EndAt.Before(*nc.StartAt) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_at", Error: "end must be after start"})
	}
	return svc.CheckNameUniqueness(ctx, nc.Name)
}

// NewEscalation contains information needed to raise an Escalation.
type NewEscalation struct {
	UserID string `json:"user_id" validate:"required"`
	Level  string `json:"level" validate:"required,oneof=low medium high critical"`
	Reason string `json:"reason" validate:"required"`
}

func (ne *NewEscalation) Validate() error {
	ne.Reason = core.CleanString(ne.Reason)
	return core.Validate.Struct(ne)
}

type QueryFilter struct {
	Search string `query:"search"`
	Type   string `query:"type"`
	Status string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Type == "" && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Type = core.CleanString(qf.Type, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
