package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// ValidateCampaign checks a campaign's name and tiers. Every tier needs a
// positive price and a non-empty quantity interval starting at 1 or above.
func ValidateCampaign(name string, tiers models.Tiers) error {
	if strings.TrimSpace(name) == "" {
		return utils.Invalid("campaign name is required")
	}
	if len(tiers) == 0 {
		return utils.Invalid("campaign needs at least one rule")
	}
	for i, t := range tiers {
		if t.Price <= 0 {
			return utils.Invalid(fmt.Sprintf("rule %d: price must be greater than 0", i+1))
		}
		if t.Min < 1 || t.Min > t.Max {
			return utils.Invalid(fmt.Sprintf("rule %d: invalid quantity range %d-%d", i+1, t.Min, t.Max))
		}
	}
	return nil
}

// NormalizeDate maps "" to nil and parses YYYY-MM-DD otherwise.
func NormalizeDate(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return nil, utils.Invalid(fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", s))
	}
	return &t, nil
}

// BuildCampaign validates input and converts it into a storable campaign.
// isActive defaults to true.
func BuildCampaign(in models.CampaignInput, loc *time.Location) (*models.Campaign, error) {
	if strings.TrimSpace(in.VisaID) == "" {
		return nil, utils.Invalid("visa is required")
	}
	if err := ValidateCampaign(in.Name, in.Rules); err != nil {
		return nil, err
	}
	start, err := NormalizeDate(in.StartDate, loc)
	if err != nil {
		return nil, err
	}
	end, err := NormalizeDate(in.EndDate, loc)
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, utils.Invalid("end date must not be before start date")
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &models.Campaign{
		ID:        in.ID,
		VisaID:    in.VisaID,
		Name:      strings.TrimSpace(in.Name),
		StartDate: start,
		EndDate:   end,
		IsActive:  active,
		Rules:     in.Rules.Clone(),
	}, nil
}
