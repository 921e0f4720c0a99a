package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/campaign"
)

type campaignRepository struct {
	db *campaignTable
}

var _ campaign.Repository = (*campaignRepository)(nil) // interface compliance check

func NewCampaignRepository(db *DB) campaign.Repository {
	return &campaignRepository{db: db.campaign}
}

func (repo *campaignRepository) CheckNameUniqueness(ctx context.Context, name string, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, cmp := range repo.db.campaigns {
		if strings.EqualFold(cmp.Name, name) {
			return campaign.ErrNameExists
		}
	}
	return nil
}

func (repo *campaignRepository) CreateCampaign(ctx context.Context, cmp campaign.Campaign, exec ...core.DBExecutor) (campaign.Campaign, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cmp.ID = uuid.New().String()
	repo.db.campaigns[cmp.ID] = &cmp
	return cmp, nil
}

func (repo *campaignRepository) QueryCampaigns(ctx context.Context, filter *campaign.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]campaign.Campaign, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	cmps := make([]campaign.Campaign, 0, len(repo.db.campaigns))
	for _, cmp := range repo.db.campaigns {
		if filter != nil {
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(cmp.Name), search) &&
					!strings.Contains(strings.ToLower(cmp.Description), search) {
					continue
				}
			}
			if filter.Type != "" && cmp.Type != filter.Type {
				continue
			}
			if filter.Status != "" && cmp.Status != filter.Status {
				continue
			}
		}
		cmps = append(cmps, *cmp)
	}
	return cmps, nil
}

func (repo *campaignRepository) GetCampaignByID(ctx context.Context, id string, exec ...core.DBExecutor) (campaign.Campaign, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cmp, ok := repo.db.campaigns[id]; ok {
		return *cmp, nil
	}
	return campaign.Campaign{}, campaign.ErrNotFound
}

func (repo *campaignRepository) UpdateCampaign(ctx context.Context, cmp campaign.Campaign, exec ...core.DBExecutor) (campaign.Campaign, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.campaigns[cmp.ID]
	if !ok {
		return campaign.Campaign{}, campaign.ErrNotFound
	}
	if cmp.Name != "" {
		orig.Name = cmp.Name
	}
	if cmp.Description != "" {
		orig.Description = cmp.Description
	}
	if cmp.Type != "" {
		orig.Type = cmp.Type
	}
	if cmp.Status != "" {
		orig.Status = cmp.Status
	}
	orig.StartAt = cmp.StartAt
	orig.EndAt = cmp.EndAt
	orig.UpdatedAt = cmp.UpdatedAt

	return *orig, nil
}

func (repo *campaignRepository) DeleteCampaignsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.campaigns[id]; ok {
			delete(repo.db.campaigns, id)
			n++
		}
	}
	return n, nil
}

func (repo *campaignRepository) QueryExpiredActive(ctx context.Context, asOf time.Time, exec ...core.DBExecutor) ([]campaign.Campaign, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var cmps []campaign.Campaign
	for _, cmp := range repo.db.campaigns {
		if cmp.Status == campaign.StatusActive && cmp.EndAt.Valid && cmp.EndAt.Time.Before(asOf) {
			cmps = append(cmps, *cmp)
		}
	}
	return cmps, nil
}

func (repo *campaignRepository) CreateEscalation(ctx context.Context, esc campaign.Escalation, exec ...core.DBExecutor) (campaign.Escalation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	esc.ID = uuid.New().String()
	repo.db.escalations[esc.ID] = &esc
	return esc, nil
}

func (repo *campaignRepository) QueryEscalations(ctx context.Context, campaignID string, exec ...core.DBExecutor) ([]campaign.Escalation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var escs []campaign.Escalation
	for _, esc := range repo.db.escalations {
		if esc.CampaignID == campaignID {
			escs = append(escs, *esc)
		}
	}
	sort.Slice(escs, func(i, j int) bool { return escs[i].CreatedAt.After(escs[j].CreatedAt) })
	return escs, nil
}

func (repo *campaignRepository) GetEscalationByID(ctx context.Context, id string, exec ...core.DBExecutor) (campaign.Escalation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if esc, ok := repo.db.escalations[id]; ok {
		return *esc, nil
	}
	return campaign.Escalation{}, campaign.ErrEscalationNotFound
}

func (repo *campaignRepository) UpdateEscalation(ctx context.Context, esc campaign.Escalation, exec ...core.DBExecutor) (campaign.Escalation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.escalations[esc.ID]
	if !ok {
		return campaign.Escalation{}, campaign.ErrEscalationNotFound
	}
	orig.Status = esc.Status
	orig.AcknowledgedAt = esc.AcknowledgedAt
	orig.ResolvedAt = esc.ResolvedAt

	return *orig, nil
}
