package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/pricing"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// SpecialPriceService manages per-agent visa prices.
type SpecialPriceService struct {
	visas    VisaStore
	specials SpecialPriceStore
	guard    *MutationGuard
	metrics  Recorder
}

// NewSpecialPriceService constructs a SpecialPriceService.
func NewSpecialPriceService(visas VisaStore, specials SpecialPriceStore, guard *MutationGuard, metrics Recorder) *SpecialPriceService {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &SpecialPriceService{visas: visas, specials: specials, guard: guard, metrics: metrics}
}

// List returns the special prices of a visa.
func (s *SpecialPriceService) List(ctx context.Context, visaID string) ([]models.AgentSpecialPrice, error) {
	return s.specials.ListByVisa(ctx, visaID)
}

func validateSpecialPrice(in models.SpecialPriceInput) error {
	if strings.TrimSpace(in.VisaID) == "" {
		return utils.Invalid("visa is required")
	}
	if strings.TrimSpace(in.AgentID) == "" {
		return utils.Invalid("select an agent")
	}
	if in.Price <= 0 {
		return utils.Invalid("special price must be greater than 0")
	}
	return nil
}

// Upsert sets the special price of one (visa, agent) pair.
func (s *SpecialPriceService) Upsert(ctx context.Context, in models.SpecialPriceInput) (*models.AgentSpecialPrice, error) {
	if err := validateSpecialPrice(in); err != nil {
		return nil, err
	}
	var out *models.AgentSpecialPrice
	err := s.guard.Do(ctx, "special-price", func() ([]string, bool, error) {
		sp, err := s.specials.Upsert(ctx, in)
		if err != nil {
			return []string{in.VisaID}, true, err
		}
		out = sp
		return []string{in.VisaID}, false, nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("visa_id", in.VisaID).Str("agent_id", in.AgentID).Int64("price", in.Price).Msg("Special price saved")
	return out, nil
}

// BulkUpsert upserts many pairs. Items priced at or below zero are dropped
// and counted as skipped; the rest are written one by one and a failure
// does not stop the remaining items.
func (s *SpecialPriceService) BulkUpsert(ctx context.Context, items []models.SpecialPriceInput) (*pricing.BulkResult, error) {
	kept, dropped := pricing.FilterPositive(items)
	if len(kept) == 0 {
		return nil, utils.Invalid("no items with a price greater than 0")
	}
	for _, it := range kept {
		if strings.TrimSpace(it.AgentID) == "" {
			return nil, utils.Invalid("select an agent")
		}
		if strings.TrimSpace(it.VisaID) == "" {
			return nil, utils.Invalid("visa is required")
		}
	}

	result := &pricing.BulkResult{Skipped: dropped, Items: []pricing.ItemResult{}}
	err := s.guard.Do(ctx, "special-price-bulk", func() ([]string, bool, error) {
		ids := s.upsertEach(ctx, kept, result)
		return ids, !result.Success(), nil
	})
	if err != nil {
		return nil, err
	}
	s.finish("special-price-bulk", result)
	return result, nil
}

// AssignRequest assigns one agent price across many visas.
type AssignRequest struct {
	VisaIDs []string `json:"visaIds"`
	AgentID string   `json:"agentId"`
	Price   int64    `json:"price"`
	Notes   *string  `json:"notes"`
}

// Assign gives one agent the same special price on every selected visa.
func (s *SpecialPriceService) Assign(ctx context.Context, req AssignRequest) (*pricing.BulkResult, error) {
	if err := pricing.ValidateRule(req.VisaIDs, req.AgentID, pricing.RuleSet, req.Price); err != nil {
		return nil, err
	}
	items := make([]models.SpecialPriceInput, 0, len(req.VisaIDs))
	for _, id := range dedupe(req.VisaIDs) {
		items = append(items, models.SpecialPriceInput{VisaID: id, AgentID: req.AgentID, Price: req.Price, Notes: req.Notes})
	}
	return s.BulkUpsert(ctx, items)
}

// RuleRequest derives special prices for one agent from retail prices.
type RuleRequest struct {
	VisaIDs []string           `json:"visaIds"`
	AgentID string             `json:"agentId"`
	Action  pricing.RuleAction `json:"action"`
	Amount  int64              `json:"amount"`
	Notes   *string            `json:"notes"`
}

// ApplyRule computes a price per selected visa and upserts it. Visas whose
// derived price is zero are skipped; unknown visas fail individually.
func (s *SpecialPriceService) ApplyRule(ctx context.Context, req RuleRequest) (*pricing.BulkResult, error) {
	if err := pricing.ValidateRule(req.VisaIDs, req.AgentID, req.Action, req.Amount); err != nil {
		return nil, err
	}

	result := &pricing.BulkResult{Items: []pricing.ItemResult{}}
	err := s.guard.Do(ctx, "special-price-rule", func() ([]string, bool, error) {
		ids := dedupe(req.VisaIDs)
		visas, err := s.visas.GetByIDs(ctx, ids)
		if err != nil {
			return ids, true, err
		}
		planned, missing := pricing.PlanRule(ids, visas, req.AgentID, req.Action, req.Amount, req.Notes)
		for _, id := range missing {
			result.Fail(id, utils.NotFound("visa", id))
		}
		kept, dropped := pricing.FilterPositive(planned)
		result.Skipped = dropped
		touched := s.upsertEach(ctx, kept, result)
		return touched, !result.Success(), nil
	})
	if err != nil {
		return nil, err
	}
	s.finish("special-price-rule", result)
	return result, nil
}

// upsertEach writes items independently into result and returns the visa ids
// it attempted. Callers hold the mutation lock.
func (s *SpecialPriceService) upsertEach(ctx context.Context, items []models.SpecialPriceInput, result *pricing.BulkResult) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.VisaID)
		if _, err := s.specials.Upsert(ctx, it); err != nil {
			log.Error().Err(err).Str("visa_id", it.VisaID).Str("agent_id", it.AgentID).Msg("Special price upsert failed")
			result.Fail(it.VisaID, err)
			continue
		}
		result.OK(it.VisaID)
	}
	return ids
}

func (s *SpecialPriceService) finish(op string, result *pricing.BulkResult) {
	s.metrics.ObserveBulk(op, result.Succeeded, result.Failed, result.Skipped)
	log.Info().
		Str("operation", op).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("Special price bulk finished")
}

// Delete removes one special price.
func (s *SpecialPriceService) Delete(ctx context.Context, id string) error {
	return s.guard.Do(ctx, "special-price-delete", func() ([]string, bool, error) {
		if err := s.specials.Delete(ctx, id); err != nil {
			return nil, true, err
		}
		return nil, false, nil
	})
}

// AgentOverrides maps visa id to the agent's special price on it.
func (s *SpecialPriceService) AgentOverrides(ctx context.Context, agentID string) (map[string]models.AgentOverride, error) {
	if strings.TrimSpace(agentID) == "" {
		return nil, utils.Invalid("select an agent")
	}
	rows, err := s.specials.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.AgentOverride, len(rows))
	for _, r := range rows {
		out[r.VisaID] = r
	}
	return out, nil
}
