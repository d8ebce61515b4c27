package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_visa/internal/deadline"
	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/pricing"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// CampaignService manages quantity-tiered promotional campaigns.
type CampaignService struct {
	campaigns CampaignStore
	guard     *MutationGuard
	metrics   Recorder
	loc       *time.Location
	now       func() time.Time
}

// NewCampaignService constructs a CampaignService.
func NewCampaignService(campaigns CampaignStore, guard *MutationGuard, metrics Recorder, loc *time.Location) *CampaignService {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CampaignService{campaigns: campaigns, guard: guard, metrics: metrics, loc: loc, now: time.Now}
}

// List returns the campaigns of a visa in match order.
func (s *CampaignService) List(ctx context.Context, visaID string) ([]models.Campaign, error) {
	return s.campaigns.ListByVisa(ctx, visaID)
}

// Upsert validates and stores one campaign. An empty id creates it.
func (s *CampaignService) Upsert(ctx context.Context, in models.CampaignInput) (*models.Campaign, error) {
	c, err := pricing.BuildCampaign(in, s.loc)
	if err != nil {
		return nil, err
	}
	var out *models.Campaign
	err = s.guard.Do(ctx, "campaign", func() ([]string, bool, error) {
		saved, err := s.campaigns.Upsert(ctx, c)
		if err != nil {
			return []string{c.VisaID}, true, err
		}
		out = saved
		return []string{c.VisaID}, false, nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("visa_id", out.VisaID).Str("campaign_id", out.ID).Int("tiers", len(out.Rules)).Msg("Campaign saved")
	return out, nil
}

// BulkCampaignRequest replicates one campaign across many visas.
type BulkCampaignRequest struct {
	VisaIDs   []string     `json:"visaIds"`
	Name      string       `json:"name"`
	StartDate string       `json:"startDate"`
	EndDate   string       `json:"endDate"`
	IsActive  *bool        `json:"isActive"`
	Rules     models.Tiers `json:"rules"`
}

// BulkCreate creates an independent campaign per selected visa. Each gets
// its own copy of the tiers.
func (s *CampaignService) BulkCreate(ctx context.Context, req BulkCampaignRequest) (*pricing.BulkResult, error) {
	ids := dedupe(req.VisaIDs)
	if len(ids) == 0 {
		return nil, utils.Invalid("select at least one visa")
	}
	template, err := pricing.BuildCampaign(models.CampaignInput{
		VisaID:    ids[0],
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		IsActive:  req.IsActive,
		Rules:     req.Rules,
	}, s.loc)
	if err != nil {
		return nil, err
	}

	result := &pricing.BulkResult{Items: []pricing.ItemResult{}}
	err = s.guard.Do(ctx, "campaign-bulk", func() ([]string, bool, error) {
		for _, id := range ids {
			c := *template
			c.VisaID = id
			c.Rules = template.Rules.Clone()
			if _, err := s.campaigns.Upsert(ctx, &c); err != nil {
				log.Error().Err(err).Str("visa_id", id).Msg("Campaign create failed")
				result.Fail(id, err)
				continue
			}
			result.OK(id)
		}
		return ids, !result.Success(), nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveBulk("campaign-bulk", result.Succeeded, result.Failed, result.Skipped)
	log.Info().Str("name", template.Name).Int("succeeded", result.Succeeded).Int("failed", result.Failed).Msg("Bulk campaign create finished")
	return result, nil
}

// Delete removes a campaign.
func (s *CampaignService) Delete(ctx context.Context, id string) error {
	return s.guard.Do(ctx, "campaign-delete", func() ([]string, bool, error) {
		if err := s.campaigns.Delete(ctx, id); err != nil {
			return nil, true, err
		}
		return nil, false, nil
	})
}

// ExpireCampaigns deactivates campaigns whose end date has passed and
// returns how many changed. Dashboards reload only when something changed.
func (s *CampaignService) ExpireCampaigns(ctx context.Context) (int64, error) {
	today := deadline.Midnight(s.now().In(s.loc))
	var n int64
	err := s.guard.Locked(ctx, func() error {
		var err error
		if n, err = s.campaigns.DeactivateExpired(ctx, today); err != nil {
			return err
		}
		if n > 0 {
			s.guard.Reload(ctx, "campaign-expiry", nil, false)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.metrics.CampaignsExpired(n)
	}
	return n, nil
}
