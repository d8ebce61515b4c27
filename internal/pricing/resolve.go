// Package pricing holds the visa price rules: resolution order, tier lookup,
// bulk adjustments and campaign validation. It performs no I/O.
package pricing

import (
	"time"

	"github.com/GTDGit/gtd_visa/internal/models"
)

// Source names the rule that produced a resolved price.
type Source string

const (
	SourceCampaign      Source = "campaign"
	SourceSpecial       Source = "special"
	SourceAgentStandard Source = "agent_standard"
	SourceRetail        Source = "retail"
)

// ResolveInput carries everything needed to price one visa for one buyer.
// AgentID empty means a walk-in (retail) customer.
type ResolveInput struct {
	Visa          *models.Visa
	AgentID       string
	Quantity      int
	Campaigns     []models.Campaign
	SpecialPrices []models.AgentSpecialPrice
	At            time.Time
}

// Resolution is the price a buyer pays and where it came from.
type Resolution struct {
	VisaID     string       `json:"visaId"`
	AgentID    string       `json:"agentId,omitempty"`
	Quantity   int          `json:"quantity"`
	Price      int64        `json:"price"`
	Source     Source       `json:"source"`
	CampaignID string       `json:"campaignId,omitempty"`
	Tier       *models.Tier `json:"tier,omitempty"`
}

// Resolve applies the precedence campaign tier > agent special price >
// agent standard price > retail price.
func Resolve(in ResolveInput) Resolution {
	qty := in.Quantity
	if qty <= 0 {
		qty = 1
	}
	res := Resolution{VisaID: in.Visa.ID, AgentID: in.AgentID, Quantity: qty}

	if c, tier, ok := FindCampaignTier(in.Campaigns, qty, in.At); ok {
		res.Price = tier.Price
		res.Source = SourceCampaign
		res.CampaignID = c.ID
		res.Tier = &tier
		return res
	}

	if in.AgentID != "" {
		for _, sp := range in.SpecialPrices {
			if sp.VisaID == in.Visa.ID && sp.AgentID != nil && *sp.AgentID == in.AgentID {
				res.Price = sp.Price
				res.Source = SourceSpecial
				return res
			}
		}
		if in.Visa.AgentStandardPrice != nil {
			res.Price = *in.Visa.AgentStandardPrice
			res.Source = SourceAgentStandard
			return res
		}
	}

	res.Price = in.Visa.RetailPrice
	res.Source = SourceRetail
	return res
}

// FindTier returns the first tier in stored order containing quantity.
func FindTier(tiers models.Tiers, quantity int) (models.Tier, bool) {
	for _, t := range tiers {
		if t.Contains(quantity) {
			return t, true
		}
	}
	return models.Tier{}, false
}

// FindCampaignTier scans campaigns in stored order and returns the first
// active campaign with a tier containing quantity.
func FindCampaignTier(campaigns []models.Campaign, quantity int, at time.Time) (*models.Campaign, models.Tier, bool) {
	for i := range campaigns {
		c := &campaigns[i]
		if !c.ActiveAt(at) {
			continue
		}
		if t, ok := FindTier(c.Rules, quantity); ok {
			return c, t, true
		}
	}
	return nil, models.Tier{}, false
}
