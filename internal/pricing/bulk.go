package pricing

import (
	"fmt"

	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// Mode is a bulk fixed-amount operation.
type Mode string

const (
	ModeIncrease Mode = "increase"
	ModeDecrease Mode = "decrease"
	ModeSet      Mode = "set"
)

// ValidateBulkUpdate rejects a bulk update before any storage call.
// Set accepts zero; increase and decrease need a positive amount.
func ValidateBulkUpdate(visaIDs []string, amount int64, mode Mode, target models.PriceTarget) error {
	if len(visaIDs) == 0 {
		return utils.Invalid("select at least one visa")
	}
	if !target.Valid() {
		return utils.Invalid(fmt.Sprintf("unknown price target %q", target))
	}
	switch mode {
	case ModeSet:
		if amount < 0 {
			return utils.Invalid("amount must be >= 0")
		}
	case ModeIncrease, ModeDecrease:
		if amount <= 0 {
			return utils.Invalid("amount must be greater than 0")
		}
	default:
		return utils.Invalid(fmt.Sprintf("unknown mode %q", mode))
	}
	return nil
}

// Adjust computes the new value of a price. A nil current price counts as 0.
// Decrease clamps at zero.
func Adjust(current *int64, amount int64, mode Mode) int64 {
	var cur int64
	if current != nil {
		cur = *current
	}
	switch mode {
	case ModeSet:
		return amount
	case ModeIncrease:
		return cur + amount
	case ModeDecrease:
		if cur-amount < 0 {
			return 0
		}
		return cur - amount
	}
	return cur
}

// CurrentPrice reads the targeted column of v.
func CurrentPrice(v *models.Visa, target models.PriceTarget) *int64 {
	if target == models.TargetAgentStandard {
		return v.AgentStandardPrice
	}
	p := v.RetailPrice
	return &p
}

// PlanPriceUpdates computes the writes for a bulk update. Requested ids with
// no loaded visa are returned in missing, in request order. Duplicate ids are
// planned once.
func PlanPriceUpdates(visaIDs []string, visas []models.Visa, amount int64, mode Mode, target models.PriceTarget) (updates []models.PriceUpdate, missing []string) {
	byID := make(map[string]*models.Visa, len(visas))
	for i := range visas {
		byID[visas[i].ID] = &visas[i]
	}
	seen := make(map[string]bool, len(visaIDs))
	for _, id := range visaIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		v, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		updates = append(updates, models.PriceUpdate{
			VisaID: id,
			Target: target,
			Value:  Adjust(CurrentPrice(v, target), amount, mode),
		})
	}
	return updates, missing
}

// ValidatePrice rejects a negative single price edit.
func ValidatePrice(field string, price *int64) error {
	if price != nil && *price < 0 {
		return utils.Invalid(field + " must be >= 0")
	}
	return nil
}
