package pricing

import (
	"fmt"

	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// RuleAction is how a shared agent rule derives each visa's special price.
type RuleAction string

const (
	RuleSet            RuleAction = "set"
	RuleDiscountAmount RuleAction = "discount_amount"
)

// FilterPositive drops items whose price is not above zero. Non-positive
// special prices are never persisted.
func FilterPositive(items []models.SpecialPriceInput) (kept []models.SpecialPriceInput, dropped int) {
	kept = make([]models.SpecialPriceInput, 0, len(items))
	for _, it := range items {
		if it.Price > 0 {
			kept = append(kept, it)
			continue
		}
		dropped++
	}
	return kept, dropped
}

// RulePrice derives a special price from a visa's retail price.
func RulePrice(retail int64, action RuleAction, amount int64) int64 {
	if action == RuleDiscountAmount {
		if retail-amount < 0 {
			return 0
		}
		return retail - amount
	}
	return amount
}

// ValidateRule rejects a shared agent rule before any storage call.
func ValidateRule(visaIDs []string, agentID string, action RuleAction, amount int64) error {
	if len(visaIDs) == 0 {
		return utils.Invalid("select at least one visa")
	}
	if agentID == "" {
		return utils.Invalid("select an agent")
	}
	if action != RuleSet && action != RuleDiscountAmount {
		return utils.Invalid(fmt.Sprintf("unknown rule action %q", action))
	}
	if amount <= 0 {
		return utils.Invalid("amount must be greater than 0")
	}
	return nil
}

// PlanRule builds one upsert item per selected visa. Ids without a loaded
// visa are returned in missing.
func PlanRule(visaIDs []string, visas []models.Visa, agentID string, action RuleAction, amount int64, notes *string) (items []models.SpecialPriceInput, missing []string) {
	byID := make(map[string]*models.Visa, len(visas))
	for i := range visas {
		byID[visas[i].ID] = &visas[i]
	}
	for _, id := range visaIDs {
		v, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		items = append(items, models.SpecialPriceInput{
			VisaID:  id,
			AgentID: agentID,
			Price:   RulePrice(v.RetailPrice, action, amount),
			Notes:   notes,
		})
	}
	return items, missing
}
