package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

const campaignColumns = `id, visa_id, name, start_date, end_date, is_active, rules, created_at, updated_at`

// CampaignRepository handles data access for visa campaigns.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository creates a new CampaignRepository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// ListByVisa returns the campaigns of one visa in creation order, which is
// also the order tiers are matched in.
func (r *CampaignRepository) ListByVisa(ctx context.Context, visaID string) ([]models.Campaign, error) {
	q := `SELECT ` + campaignColumns + ` FROM visa_campaigns WHERE visa_id = $1 ORDER BY created_at, id`
	campaigns := []models.Campaign{}
	if err := r.db.SelectContext(ctx, &campaigns, q, visaID); err != nil {
		if badID(err) {
			return []models.Campaign{}, nil
		}
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, nil
}

// ListActive returns every campaign active on day, across all visas.
func (r *CampaignRepository) ListActive(ctx context.Context, day time.Time) ([]models.Campaign, error) {
	q := `SELECT ` + campaignColumns + ` FROM visa_campaigns
        WHERE is_active
          AND (start_date IS NULL OR start_date <= $1::date)
          AND (end_date IS NULL OR end_date >= $1::date)
        ORDER BY visa_id, created_at, id`
	campaigns := []models.Campaign{}
	if err := r.db.SelectContext(ctx, &campaigns, q, dateString(day)); err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	return campaigns, nil
}

// Upsert updates the campaign when c.ID is set and inserts it otherwise.
func (r *CampaignRepository) Upsert(ctx context.Context, c *models.Campaign) (*models.Campaign, error) {
	var out models.Campaign
	var err error
	if c.ID == "" {
		err = r.db.GetContext(ctx, &out, `
            INSERT INTO visa_campaigns (visa_id, name, start_date, end_date, is_active, rules)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING `+campaignColumns,
			c.VisaID, c.Name, dateArg(c.StartDate), dateArg(c.EndDate), c.IsActive, c.Rules)
	} else {
		err = r.db.GetContext(ctx, &out, `
            UPDATE visa_campaigns SET
                visa_id = $2, name = $3, start_date = $4, end_date = $5, is_active = $6, rules = $7,
                updated_at = NOW()
            WHERE id = $1
            RETURNING `+campaignColumns,
			c.ID, c.VisaID, c.Name, dateArg(c.StartDate), dateArg(c.EndDate), c.IsActive, c.Rules)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NotFound("campaign", c.ID)
		}
		if badID(err) || pqCode(err) == pqForeignKey {
			return nil, utils.NotFound("visa or campaign", c.VisaID+"/"+c.ID)
		}
		return nil, fmt.Errorf("upsert campaign: %w", err)
	}
	return &out, nil
}

// Delete removes a campaign by id.
func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM visa_campaigns WHERE id = $1`, id)
	if badID(err) {
		return utils.NotFound("campaign", id)
	}
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.NotFound("campaign", id)
	}
	return nil
}

// DeactivateExpired switches off active campaigns whose end date is before
// day and returns how many changed.
func (r *CampaignRepository) DeactivateExpired(ctx context.Context, day time.Time) (int64, error) {
	const q = `
        UPDATE visa_campaigns SET is_active = false, updated_at = NOW()
        WHERE is_active AND end_date IS NOT NULL AND end_date < $1::date`
	res, err := r.db.ExecContext(ctx, q, dateString(day))
	if err != nil {
		return 0, fmt.Errorf("deactivate expired campaigns: %w", err)
	}
	return res.RowsAffected()
}
