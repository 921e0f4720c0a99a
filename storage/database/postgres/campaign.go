package pgrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/campaign"
)

type campaignRepository struct {
	exec core.DBExecutor
}

var _ campaign.Repository = (*campaignRepository)(nil) // interface compliance check

func NewCampaignRepository(exec core.DBExecutor) *campaignRepository {
	return &campaignRepository{exec: exec}
}

type campaignRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Type        string    `db:"type"`
	Status      string    `db:"status"`
	StartAt     null.Time `db:"start_at"`
	EndAt       null.Time `db:"end_at"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r campaignRow) domain() campaign.Campaign {
	return campaign.Campaign(r)
}

type escalationRow struct {
	ID             string    `db:"id"`
	CampaignID     string    `db:"campaign_id"`
	UserID         string    `db:"user_id"`
	Level          string    `db:"level"`
	Status         string    `db:"status"`
	Reason         string    `db:"reason"`
	AcknowledgedAt null.Time `db:"acknowledged_at"`
	ResolvedAt     null.Time `db:"resolved_at"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r escalationRow) domain() campaign.Escalation {
	return campaign.Escalation(r)
}

func (repo campaignRepository) CheckNameUniqueness(ctx context.Context, name string, exec ...core.DBExecutor) error {
	var exists bool
	err := getExec(repo.exec, exec).GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM campaigns WHERE LOWER(name) = LOWER($1))`, name)
	if err != nil {
		return errors.Wrap(err, "checking campaign name uniqueness")
	}
	if exists {
		return campaign.ErrNameExists
	}
	return nil
}

func (repo campaignRepository) CreateCampaign(ctx context.Context, cmp campaign.Campaign, exec ...core.DBExecutor) (campaign.Campaign, error) {
	cmp.ID = uuid.New().String()
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `
		INSERT INTO campaigns (id, name, description, type, status, start_at, end_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		cmp.ID, cmp.Name, cmp.Description, cmp.Type, cmp.Status, cmp.StartAt, cmp.EndAt,
		cmp.CreatedBy, cmp.CreatedAt.UTC(), cmp.UpdatedAt.UTC(),
	)
	if err != nil {
		return campaign.Campaign{}, errors.Wrap(err, "inserting campaign")
	}
	return cmp, nil
}

func (repo campaignRepository) QueryCampaigns(ctx context.Context, filter *campaign.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]campaign.Campaign, error) {
	q := `SELECT * FROM campaigns`
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf("(name ILIKE %[1]s OR description ILIKE %[1]s)", p))
		}
		if filter.Type != "" {
			conds = append(conds, fmt.Sprintf("type = %s", arg(filter.Type)))
		}
		if filter.Status != "" {
			conds = append(conds, fmt.Sprintf("status = %s", arg(filter.Status)))
		}
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q += " ORDER BY " + strings.Join(orderList, ", ")
	}

	var rows []campaignRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying campaigns")
	}
	cmps := make([]campaign.Campaign, 0, len(rows))
	for _, row := range rows {
		cmps = append(cmps, row.domain())
	}
	return cmps, nil
}

func (repo campaignRepository) GetCampaignByID(ctx context.Context, id string, exec ...core.DBExecutor) (campaign.Campaign, error) {
	if _, err := uuid.Parse(id); err != nil {
		return campaign.Campaign{}, campaign.ErrNotFound
	}
	var row campaignRow
	if err := getExec(repo.exec, exec).GetContext(ctx, &row, `SELECT * FROM campaigns WHERE id = $1`, id); err != nil {
		return campaign.Campaign{}, trapNoRowsErr(err, campaign.ErrNotFound, "finding campaign by ID")
	}
	return row.domain(), nil
}

func (repo campaignRepository) UpdateCampaign(ctx context.Context, cmp campaign.Campaign, exec ...core.DBExecutor) (campaign.Campaign, error) {
	var row campaignRow
	err := getExec(repo.exec, exec).GetContext(ctx, &row, `
		UPDATE campaigns SET
			name = COALESCE(NULLIF($2, ''), name),
			description = COALESCE(NULLIF($3, ''), description),
			type = COALESCE(NULLIF($4, ''), type),
			status = COALESCE(NULLIF($5, ''), status),
			start_at = $6,
			end_at = $7,
			updated_at = $8
		WHERE id = $1
		RETURNING *`,
		cmp.ID, cmp.Name, cmp.Description, cmp.Type, cmp.Status, cmp.StartAt, cmp.EndAt, cmp.UpdatedAt.UTC(),
	)
	if err != nil {
		return campaign.Campaign{}, trapNoRowsErr(err, campaign.ErrNotFound, "updating campaign")
	}
	return row.domain(), nil
}

func (repo campaignRepository) DeleteCampaignsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM campaigns WHERE id = ANY($1)`, pq.StringArray(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting campaigns")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo campaignRepository) QueryExpiredActive(ctx context.Context, asOf time.Time, exec ...core.DBExecutor) ([]campaign.Campaign, error) {
	var rows []campaignRow
	err := getExec(repo.exec, exec).SelectContext(ctx, &rows,
		`SELECT * FROM campaigns WHERE status = $1 AND end_at IS NOT NULL AND end_at < $2`,
		campaign.StatusActive, asOf.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "querying expired campaigns")
	}
	cmps := make([]campaign.Campaign, 0, len(rows))
	for _, row := range rows {
		cmps = append(cmps, row.domain())
	}
	return cmps, nil
}

func (repo campaignRepository) CreateEscalation(ctx context.Context, esc campaign.Escalation, exec ...core.DBExecutor) (campaign.Escalation, error) {
	esc.ID = uuid.New().String()
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `
		INSERT INTO escalations (id, campaign_id, user_id, level, status, reason, acknowledged_at, resolved_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		esc.ID, esc.CampaignID, esc.UserID, esc.Level, esc.Status, esc.Reason,
		esc.AcknowledgedAt, esc.ResolvedAt, esc.CreatedAt.UTC(),
	)
	if err != nil {
		return campaign.Escalation{}, errors.Wrap(err, "inserting escalation")
	}
	return esc, nil
}

func (repo campaignRepository) QueryEscalations(ctx context.Context, campaignID string, exec ...core.DBExecutor) ([]campaign.Escalation, error) {
	var rows []escalationRow
	err := getExec(repo.exec, exec).SelectContext(ctx, &rows,
		`SELECT * FROM escalations WHERE campaign_id = $1 ORDER BY created_at DESC`, campaignID)
	if err != nil {
		return nil, errors.Wrap(err, "querying escalations")
	}
	escs := make([]campaign.Escalation, 0, len(rows))
	for _, row := range rows {
		escs = append(escs, row.domain())
	}
	return escs, nil
}

func (repo campaignRepository) GetEscalationByID(ctx context.Context, id string, exec ...core.DBExecutor) (campaign.Escalation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return campaign.Escalation{}, campaign.ErrEscalationNotFound
	}
	var row escalationRow
	if err := getExec(repo.exec, exec).GetContext(ctx, &row, `SELECT * FROM escalations WHERE id = $1`, id); err != nil {
		return campaign.Escalation{}, trapNoRowsErr(err, campaign.ErrEscalationNotFound, "finding escalation by ID")
	}
	return row.domain(), nil
}

func (repo campaignRepository) UpdateEscalation(ctx context.Context, esc campaign.Escalation, exec ...core.DBExecutor) (campaign.Escalation, error) {
	var row escalationRow
	err := getExec(repo.exec, exec).GetContext(ctx, &row, `
		UPDATE escalations SET
			status = $2,
			acknowledged_at = $3,
			resolved_at = $4
		WHERE id = $1
		RETURNING *`,
		esc.ID, esc.Status, esc.AcknowledgedAt, esc.ResolvedAt,
	)
	if err != nil {
		return campaign.Escalation{}, trapNoRowsErr(err, campaign.ErrEscalationNotFound, "updating escalation")
	}
	return row.domain(), nil
}
