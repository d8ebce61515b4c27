package service

import (
	"context"
	"fmt"
	"time"

	"github.com/GTDGit/gtd_visa/internal/deadline"
	"github.com/GTDGit/gtd_visa/internal/models"
)

// PriceSheetService assembles printable price lists.
type PriceSheetService struct {
	pricing   *PricingService
	specials  SpecialPriceStore
	campaigns CampaignStore
	agents    AgentStore
	loc       *time.Location
	now       func() time.Time
}

// NewPriceSheetService constructs a PriceSheetService.
func NewPriceSheetService(pricing *PricingService, specials SpecialPriceStore, campaigns CampaignStore, agents AgentStore, loc *time.Location) *PriceSheetService {
	if loc == nil {
		loc = time.UTC
	}
	return &PriceSheetService{pricing: pricing, specials: specials, campaigns: campaigns, agents: agents, loc: loc, now: time.Now}
}

// Build returns the price sheet for opts. Selected visas are printed in view
// order; with no selection every filtered visa is printed.
func (s *PriceSheetService) Build(ctx context.Context, opts models.PriceSheetOptions) (*models.PriceSheet, error) {
	views, err := s.pricing.PricingView(ctx, opts.Filter)
	if err != nil {
		return nil, err
	}

	sheet := &models.PriceSheet{
		Title:             "Visa Price List",
		GeneratedAt:       s.now().In(s.loc),
		ShowRetail:        opts.ShowRetail,
		ShowAgentStandard: opts.ShowAgentStandard,
		ShowPromo:         opts.ShowPromo,
		Rows:              []models.PriceSheetRow{},
	}

	var overrides map[string]models.AgentOverride
	if opts.AgentID != "" {
		agent, err := s.agents.GetByID(ctx, opts.AgentID)
		if err != nil {
			return nil, err
		}
		sheet.AgentID = agent.ID
		sheet.AgentName = agentLabel(agent)

		rows, err := s.specials.ListByAgent(ctx, agent.ID)
		if err != nil {
			return nil, fmt.Errorf("load agent overrides: %w", err)
		}
		overrides = make(map[string]models.AgentOverride, len(rows))
		for _, r := range rows {
			overrides[r.VisaID] = r
		}
	}

	promos := map[string][]string{}
	if opts.ShowPromo {
		active, err := s.campaigns.ListActive(ctx, deadline.Midnight(sheet.GeneratedAt))
		if err != nil {
			return nil, fmt.Errorf("load active campaigns: %w", err)
		}
		for _, c := range active {
			promos[c.VisaID] = append(promos[c.VisaID], c.Name)
		}
	}

	var selected map[string]bool
	if len(opts.VisaIDs) > 0 {
		selected = make(map[string]bool, len(opts.VisaIDs))
		for _, id := range opts.VisaIDs {
			selected[id] = true
		}
	}

	for _, v := range views {
		if selected != nil && !selected[v.ID] {
			continue
		}
		row := models.PriceSheetRow{
			VisaID:             v.ID,
			Name:               v.Name,
			Country:            v.Country,
			Type:               string(v.EntryType),
			Currency:           v.Currency,
			RetailPrice:        v.RetailPrice,
			AgentStandardPrice: v.AgentStandardPrice,
			Promos:             promos[v.ID],
		}
		if o, ok := overrides[v.ID]; ok {
			price := o.Price
			row.SpecialPrice = &price
			row.SpecialNote = o.Notes
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

func agentLabel(a *models.Agent) string {
	if a.CompanyName != nil && *a.CompanyName != "" {
		return a.Name + " (" + *a.CompanyName + ")"
	}
	return a.Name
}
