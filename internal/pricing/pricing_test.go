package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

func i64(v int64) *int64 { return &v }
func str(s string) *string { return &s }

var today = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func fixture() ResolveInput {
	return ResolveInput{
		Visa: &models.Visa{ID: "v1", RetailPrice: 1_000_000, AgentStandardPrice: i64(900_000)},
		Campaigns: []models.Campaign{{
			ID:       "c1",
			VisaID:   "v1",
			Name:     "War Visa",
			IsActive: true,
			Rules:    models.Tiers{{Min: 3, Max: 5, Price: 500_000}},
		}},
		SpecialPrices: []models.AgentSpecialPrice{{ID: "s1", VisaID: "v1", AgentID: str("A"), Price: 800_000}},
		At:            today,
	}
}

func TestResolve_Precedence(t *testing.T) {
	in := fixture()
	in.AgentID, in.Quantity = "A", 3
	got := Resolve(in)
	assert.Equal(t, int64(500_000), got.Price)
	assert.Equal(t, SourceCampaign, got.Source)
	assert.Equal(t, "c1", got.CampaignID)

	in.Quantity = 1
	got = Resolve(in)
	assert.Equal(t, int64(800_000), got.Price)
	assert.Equal(t, SourceSpecial, got.Source)

	in.AgentID = "B"
	got = Resolve(in)
	assert.Equal(t, int64(900_000), got.Price)
	assert.Equal(t, SourceAgentStandard, got.Source)

	in.Visa.AgentStandardPrice = nil
	got = Resolve(in)
	assert.Equal(t, int64(1_000_000), got.Price)
	assert.Equal(t, SourceRetail, got.Source)
}

func TestResolve_WalkInIgnoresAgentPrices(t *testing.T) {
	in := fixture()
	in.Quantity = 1
	got := Resolve(in)
	assert.Equal(t, int64(1_000_000), got.Price)
	assert.Equal(t, SourceRetail, got.Source)
}

func TestResolve_CampaignAppliesToWalkIn(t *testing.T) {
	in := fixture()
	in.Quantity = 4
	assert.Equal(t, SourceCampaign, Resolve(in).Source)
}

func TestResolve_QuantityDefaultsToOne(t *testing.T) {
	in := fixture()
	in.AgentID = "A"
	got := Resolve(in)
	assert.Equal(t, 1, got.Quantity)
	assert.Equal(t, SourceSpecial, got.Source)
}

func TestResolve_InactiveOrOutOfWindowCampaign(t *testing.T) {
	in := fixture()
	in.AgentID, in.Quantity = "A", 3

	in.Campaigns[0].IsActive = false
	assert.Equal(t, SourceSpecial, Resolve(in).Source)

	in.Campaigns[0].IsActive = true
	ended := today.AddDate(0, 0, -1)
	in.Campaigns[0].EndDate = &ended
	assert.Equal(t, SourceSpecial, Resolve(in).Source)

	in.Campaigns[0].EndDate = &today
	assert.Equal(t, SourceCampaign, Resolve(in).Source, "end date is inclusive")

	starts := today.AddDate(0, 0, 1)
	in.Campaigns[0].EndDate = nil
	in.Campaigns[0].StartDate = &starts
	assert.Equal(t, SourceSpecial, Resolve(in).Source)
}

func TestFindTier_FirstMatchInStoredOrder(t *testing.T) {
	tiers := models.Tiers{
		{Min: 1, Max: 10, Price: 700},
		{Min: 5, Max: 8, Price: 600},
	}
	got, ok := FindTier(tiers, 6)
	require.True(t, ok)
	assert.Equal(t, int64(700), got.Price)

	_, ok = FindTier(tiers, 11)
	assert.False(t, ok)
}

func TestFindCampaignTier_SkipsCampaignWithoutMatch(t *testing.T) {
	campaigns := []models.Campaign{
		{ID: "a", IsActive: true, Rules: models.Tiers{{Min: 10, Max: 20, Price: 1}}},
		{ID: "b", IsActive: true, Rules: models.Tiers{{Min: 1, Max: 5, Price: 2}}},
	}
	c, tier, ok := FindCampaignTier(campaigns, 2, today)
	require.True(t, ok)
	assert.Equal(t, "b", c.ID)
	assert.Equal(t, int64(2), tier.Price)
}

func TestValidateBulkUpdate(t *testing.T) {
	ids := []string{"v1"}
	assert.NoError(t, ValidateBulkUpdate(ids, 0, ModeSet, models.TargetRetail))
	assert.NoError(t, ValidateBulkUpdate(ids, 10, ModeIncrease, models.TargetAgentStandard))

	for name, err := range map[string]error{
		"empty selection":   ValidateBulkUpdate(nil, 10, ModeIncrease, models.TargetRetail),
		"zero increase":     ValidateBulkUpdate(ids, 0, ModeIncrease, models.TargetRetail),
		"zero decrease":     ValidateBulkUpdate(ids, 0, ModeDecrease, models.TargetRetail),
		"negative set":      ValidateBulkUpdate(ids, -1, ModeSet, models.TargetRetail),
		"unknown mode":      ValidateBulkUpdate(ids, 1, Mode("double"), models.TargetRetail),
		"unknown target":    ValidateBulkUpdate(ids, 1, ModeSet, models.PriceTarget("cost")),
		"negative decrease": ValidateBulkUpdate(ids, -5, ModeDecrease, models.TargetRetail),
	} {
		assert.True(t, errors.Is(err, utils.ErrValidation), name)
	}
}

func TestAdjust(t *testing.T) {
	assert.Equal(t, int64(0), Adjust(i64(50_000), 100_000, ModeDecrease))
	assert.Equal(t, int64(40_000), Adjust(i64(50_000), 10_000, ModeDecrease))
	assert.Equal(t, int64(60_000), Adjust(i64(50_000), 10_000, ModeIncrease))
	assert.Equal(t, int64(0), Adjust(i64(50_000), 0, ModeSet))
	assert.Equal(t, int64(10_000), Adjust(nil, 10_000, ModeIncrease), "nil counts as zero")
	assert.Equal(t, int64(0), Adjust(nil, 10_000, ModeDecrease))
}

func TestPlanPriceUpdates(t *testing.T) {
	visas := []models.Visa{
		{ID: "v1", RetailPrice: 50_000},
		{ID: "v2", RetailPrice: 200_000, AgentStandardPrice: i64(150_000)},
	}

	updates, missing := PlanPriceUpdates([]string{"v1", "v2", "v3", "v1"}, visas, 100_000, ModeDecrease, models.TargetRetail)
	require.Len(t, updates, 2)
	assert.Equal(t, models.PriceUpdate{VisaID: "v1", Target: models.TargetRetail, Value: 0}, updates[0])
	assert.Equal(t, int64(100_000), updates[1].Value)
	assert.Equal(t, []string{"v3"}, missing)

	updates, _ = PlanPriceUpdates([]string{"v1", "v2"}, visas, 5_000, ModeIncrease, models.TargetAgentStandard)
	assert.Equal(t, int64(5_000), updates[0].Value)
	assert.Equal(t, int64(155_000), updates[1].Value)
}

func TestFilterPositive(t *testing.T) {
	items := []models.SpecialPriceInput{
		{VisaID: "v1", AgentID: "A", Price: 100},
		{VisaID: "v2", AgentID: "A", Price: 0},
		{VisaID: "v3", AgentID: "A", Price: -5},
	}
	kept, dropped := FilterPositive(items)
	require.Len(t, kept, 1)
	assert.Equal(t, "v1", kept[0].VisaID)
	assert.Equal(t, 2, dropped)
}

func TestRulePrice(t *testing.T) {
	assert.Equal(t, int64(300), RulePrice(1_000, RuleSet, 300))
	assert.Equal(t, int64(700), RulePrice(1_000, RuleDiscountAmount, 300))
	assert.Equal(t, int64(0), RulePrice(200, RuleDiscountAmount, 300))
}

func TestPlanRule(t *testing.T) {
	visas := []models.Visa{{ID: "v1", RetailPrice: 1_000}, {ID: "v2", RetailPrice: 100}}
	items, missing := PlanRule([]string{"v1", "v2", "gone"}, visas, "A", RuleDiscountAmount, 200, nil)
	require.Len(t, items, 2)
	assert.Equal(t, int64(800), items[0].Price)
	assert.Equal(t, int64(0), items[1].Price)
	assert.Equal(t, []string{"gone"}, missing)
}

func TestValidateRule(t *testing.T) {
	assert.NoError(t, ValidateRule([]string{"v1"}, "A", RuleSet, 1))
	assert.ErrorIs(t, ValidateRule([]string{"v1"}, "", RuleSet, 1), utils.ErrValidation)
	assert.ErrorIs(t, ValidateRule(nil, "A", RuleSet, 1), utils.ErrValidation)
	assert.ErrorIs(t, ValidateRule([]string{"v1"}, "A", RuleSet, 0), utils.ErrValidation)
	assert.ErrorIs(t, ValidateRule([]string{"v1"}, "A", RuleAction("percent"), 5), utils.ErrValidation)
}

func TestValidateCampaign(t *testing.T) {
	ok := models.Tiers{{Min: 1, Max: 999, Price: 1}}
	assert.NoError(t, ValidateCampaign("Promo", ok))
	assert.ErrorIs(t, ValidateCampaign("   ", ok), utils.ErrValidation)
	assert.ErrorIs(t, ValidateCampaign("Promo", nil), utils.ErrValidation)
	assert.ErrorIs(t, ValidateCampaign("Promo", models.Tiers{{Min: 1, Max: 5, Price: 0}}), utils.ErrValidation)
	assert.ErrorIs(t, ValidateCampaign("Promo", models.Tiers{{Min: 6, Max: 5, Price: 10}}), utils.ErrValidation)
	assert.ErrorIs(t, ValidateCampaign("Promo", models.Tiers{{Min: 0, Max: 5, Price: 10}}), utils.ErrValidation)
}

func TestNormalizeDate(t *testing.T) {
	d, err := NormalizeDate("", time.UTC)
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = NormalizeDate("  ", time.UTC)
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = NormalizeDate("2025-07-01", time.UTC)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), *d)

	_, err = NormalizeDate("July 1st", time.UTC)
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestBuildCampaign(t *testing.T) {
	rules := models.Tiers{{Min: 1, Max: 3, Price: 10}}
	c, err := BuildCampaign(models.CampaignInput{VisaID: "v1", Name: " Promo ", StartDate: "", EndDate: "2025-07-01", Rules: rules}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Promo", c.Name)
	assert.Nil(t, c.StartDate)
	require.NotNil(t, c.EndDate)
	assert.True(t, c.IsActive)

	c.Rules[0].Price = 99
	assert.Equal(t, int64(10), rules[0].Price, "tiers are copied, not shared")

	_, err = BuildCampaign(models.CampaignInput{VisaID: "v1", Name: "P", StartDate: "2025-07-02", EndDate: "2025-07-01", Rules: rules}, time.UTC)
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = BuildCampaign(models.CampaignInput{Name: "P", Rules: rules}, time.UTC)
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestBulkResult(t *testing.T) {
	var r BulkResult
	r.OK("v1")
	assert.True(t, r.Success())
	assert.False(t, r.ReloadRequired)

	r.Fail("v2", errors.New("boom"))
	assert.False(t, r.Success())
	assert.True(t, r.ReloadRequired)
	assert.Equal(t, 2, r.Total)
	assert.Equal(t, "boom", r.Items[1].Error)
}
