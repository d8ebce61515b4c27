package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_visa/internal/cache"
	"github.com/GTDGit/gtd_visa/internal/deadline"
	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/pricing"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// PricingService serves the pricing dashboard: the visa price view, inline
// and bulk price edits, price resolution and per-visa deadlines.
type PricingService struct {
	visas     VisaStore
	specials  SpecialPriceStore
	campaigns CampaignStore
	views     ViewCache
	guard     *MutationGuard
	metrics   Recorder

	loc        *time.Location
	bufferDays int
	now        func() time.Time
}

// NewPricingService constructs a PricingService.
func NewPricingService(visas VisaStore, specials SpecialPriceStore, campaigns CampaignStore, views ViewCache, guard *MutationGuard, metrics Recorder, loc *time.Location, bufferDays int) *PricingService {
	if views == nil {
		views = nopCache{}
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PricingService{
		visas:      visas,
		specials:   specials,
		campaigns:  campaigns,
		views:      views,
		guard:      guard,
		metrics:    metrics,
		loc:        loc,
		bufferDays: bufferDays,
		now:        time.Now,
	}
}

func (s *PricingService) today() time.Time {
	return deadline.Midnight(s.now().In(s.loc))
}

// PricingView returns the filtered visa list with override counts. Views are
// served from cache when possible; a cache failure falls through to storage.
func (s *PricingService) PricingView(ctx context.Context, filter models.VisaFilter) ([]models.PricingView, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, utils.Invalid("minimum price must not exceed maximum price")
	}
	day := s.today()
	key := cache.ViewKey(filter, day)

	views, ok, err := s.views.GetView(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("Pricing cache read failed")
	}
	if ok {
		return views, nil
	}

	views, err = s.visas.GetPricingView(ctx, filter, day)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []models.PricingView{}
	}
	if err := s.views.SetView(ctx, key, views); err != nil {
		log.Warn().Err(err).Msg("Pricing cache write failed")
	}
	return views, nil
}

// Options returns the distinct filter values.
func (s *PricingService) Options(ctx context.Context) (*models.VisaOptions, error) {
	return s.visas.Options(ctx)
}

// GetVisa returns one visa.
func (s *PricingService) GetVisa(ctx context.Context, id string) (*models.Visa, error) {
	return s.visas.GetByID(ctx, id)
}

// UpdateVisaPrice applies an inline price edit.
func (s *PricingService) UpdateVisaPrice(ctx context.Context, id string, edit models.PriceEdit) (*models.Visa, error) {
	if edit.Empty() {
		return nil, utils.Invalid("nothing to update")
	}
	if err := pricing.ValidatePrice("price", edit.RetailPrice); err != nil {
		return nil, err
	}
	if err := pricing.ValidatePrice("priceAgent", edit.AgentStandardPrice); err != nil {
		return nil, err
	}

	var updated *models.Visa
	err := s.guard.Do(ctx, "visa-price", func() ([]string, bool, error) {
		v, err := s.visas.UpdatePrice(ctx, id, edit)
		if err != nil {
			return []string{id}, true, err
		}
		updated = v
		return []string{id}, false, nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("visa_id", id).Int64("retail_price", updated.RetailPrice).Msg("Visa price updated")
	return updated, nil
}

// BulkUpdateRequest is a fixed-amount update over many visas.
type BulkUpdateRequest struct {
	VisaIDs []string           `json:"visaIds"`
	Amount  int64              `json:"amount"`
	Mode    pricing.Mode       `json:"mode"`
	Target  models.PriceTarget `json:"target"`
}

// BulkUpdatePrices adjusts one price column of many visas. Unknown ids fail
// individually; the remaining writes commit or roll back together.
func (s *PricingService) BulkUpdatePrices(ctx context.Context, req BulkUpdateRequest) (*pricing.BulkResult, error) {
	if req.Target == "" {
		req.Target = models.TargetRetail
	}
	if err := pricing.ValidateBulkUpdate(req.VisaIDs, req.Amount, req.Mode, req.Target); err != nil {
		return nil, err
	}

	result := &pricing.BulkResult{Items: []pricing.ItemResult{}}
	err := s.guard.Do(ctx, "bulk-update", func() ([]string, bool, error) {
		visas, err := s.visas.GetByIDs(ctx, req.VisaIDs)
		if err != nil {
			return req.VisaIDs, true, err
		}
		updates, missing := pricing.PlanPriceUpdates(req.VisaIDs, visas, req.Amount, req.Mode, req.Target)
		writeErr := s.visas.ApplyPriceUpdates(ctx, updates)

		missingSet := make(map[string]bool, len(missing))
		for _, id := range missing {
			missingSet[id] = true
		}
		planned := make([]string, 0, len(updates))
		for _, u := range updates {
			planned = append(planned, u.VisaID)
		}
		for _, id := range dedupe(req.VisaIDs) {
			switch {
			case missingSet[id]:
				result.Fail(id, utils.NotFound("visa", id))
			case writeErr != nil:
				result.Fail(id, writeErr)
			default:
				result.OK(id)
			}
		}
		return planned, !result.Success(), nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveBulk("bulk-update", result.Succeeded, result.Failed, result.Skipped)
	log.Info().
		Str("mode", string(req.Mode)).
		Str("target", string(req.Target)).
		Int64("amount", req.Amount).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("Bulk price update finished")
	return result, nil
}

// Resolve prices visaID for an optional agent and quantity.
func (s *PricingService) Resolve(ctx context.Context, visaID, agentID string, quantity int) (*pricing.Resolution, error) {
	visa, err := s.visas.GetByID(ctx, visaID)
	if err != nil {
		return nil, err
	}
	campaigns, err := s.campaigns.ListByVisa(ctx, visaID)
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}
	var specials []models.AgentSpecialPrice
	if agentID != "" {
		if specials, err = s.specials.ListByVisa(ctx, visaID); err != nil {
			return nil, fmt.Errorf("load special prices: %w", err)
		}
	}

	res := pricing.Resolve(pricing.ResolveInput{
		Visa:          visa,
		AgentID:       agentID,
		Quantity:      quantity,
		Campaigns:     campaigns,
		SpecialPrices: specials,
		At:            s.now().In(s.loc),
	})
	return &res, nil
}

// VisaDeadline evaluates the submission deadline of visaID for a departure
// date, using the visa's processing time. bufferDays nil means the default.
// Visas without a valid processing time are rejected.
func (s *PricingService) VisaDeadline(ctx context.Context, visaID, departure string, bufferDays *int) (*deadline.Assessment, error) {
	dep, err := deadline.ParseDate(departure, s.loc)
	if err != nil {
		return nil, utils.Invalid(err.Error())
	}
	buffer, err := resolveBuffer(bufferDays, s.bufferDays)
	if err != nil {
		return nil, err
	}
	visa, err := s.visas.GetByID(ctx, visaID)
	if err != nil {
		return nil, err
	}
	// A broken timing would read as 0 days and push the deadline late.
	if err := visa.ProcessingTime().Validate(); err != nil {
		return nil, utils.Invalid(fmt.Sprintf("visa %s has no usable processing time: %v", visa.Name, err))
	}
	a := deadline.Evaluate(dep, visa.ProcessingDays(), buffer, s.today())
	return &a, nil
}

func resolveBuffer(override *int, def int) (int, error) {
	if override == nil {
		return def, nil
	}
	if *override < 0 {
		return 0, utils.Invalid("bufferDays must be >= 0")
	}
	return *override, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
