package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GTDGit/gtd_visa/internal/database"
	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

const visaColumns = `v.id, v.name, v.country, v.purpose, v.category, v.entry_type, v.currency,
        v.retail_price, v.agent_standard_price,
        v.stay_duration_type, v.stay_duration_fix, v.stay_duration_min, v.stay_duration_max,
        v.validity_type, v.validity_fix, v.validity_min, v.validity_max,
        v.processing_time_type, v.processing_time_fix, v.processing_time_min, v.processing_time_max,
        v.created_at, v.updated_at`

// VisaRepository handles data access for visa products and their prices.
type VisaRepository struct {
	db *sqlx.DB
}

// NewVisaRepository creates a new VisaRepository.
func NewVisaRepository(db *sqlx.DB) *VisaRepository {
	return &VisaRepository{db: db}
}

// GetPricingView returns every visa matching filter with its special price
// count and the number of campaigns active on day.
func (r *VisaRepository) GetPricingView(ctx context.Context, filter models.VisaFilter, day time.Time) ([]models.PricingView, error) {
	q := `SELECT ` + visaColumns + `,
            COALESCE(sp.cnt, 0) AS special_price_count,
            COALESCE(vc.cnt, 0) AS active_campaign_count
        FROM visas v
        LEFT JOIN (
            SELECT visa_id, COUNT(*) AS cnt FROM agent_special_prices GROUP BY visa_id
        ) sp ON sp.visa_id = v.id
        LEFT JOIN (
            SELECT visa_id, COUNT(*) AS cnt FROM visa_campaigns
            WHERE is_active
              AND (start_date IS NULL OR start_date <= $1::date)
              AND (end_date IS NULL OR end_date >= $1::date)
            GROUP BY visa_id
        ) vc ON vc.visa_id = v.id
        WHERE 1=1`

	args := []interface{}{dateString(day)}
	argIdx := 2

	if filter.Search != "" {
		q += fmt.Sprintf(" AND (v.name ILIKE $%d OR v.country ILIKE $%d OR v.entry_type ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	if len(filter.Countries) > 0 {
		q += fmt.Sprintf(" AND v.country = ANY($%d)", argIdx)
		args = append(args, pq.Array(filter.Countries))
		argIdx++
	}
	if len(filter.Types) > 0 {
		q += fmt.Sprintf(" AND v.entry_type = ANY($%d)", argIdx)
		args = append(args, pq.Array(filter.Types))
		argIdx++
	}
	if filter.MinPrice != nil {
		q += fmt.Sprintf(" AND v.retail_price >= $%d", argIdx)
		args = append(args, *filter.MinPrice)
		argIdx++
	}
	if filter.MaxPrice != nil {
		q += fmt.Sprintf(" AND v.retail_price <= $%d", argIdx)
		args = append(args, *filter.MaxPrice)
	}
	q += ` ORDER BY v.country, v.name`

	var views []models.PricingView
	if err := r.db.SelectContext(ctx, &views, q, args...); err != nil {
		return nil, fmt.Errorf("select pricing view: %w", err)
	}
	return views, nil
}

// GetByID returns a single visa.
func (r *VisaRepository) GetByID(ctx context.Context, id string) (*models.Visa, error) {
	q := `SELECT ` + visaColumns + ` FROM visas v WHERE v.id = $1`
	var v models.Visa
	if err := r.db.GetContext(ctx, &v, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || badID(err) {
			return nil, utils.NotFound("visa", id)
		}
		return nil, err
	}
	return &v, nil
}

// GetByIDs returns the visas among ids that exist, in no particular order.
func (r *VisaRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Visa, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT ` + visaColumns + ` FROM visas v WHERE v.id::text = ANY($1)`
	var visas []models.Visa
	if err := r.db.SelectContext(ctx, &visas, q, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("select visas: %w", err)
	}
	return visas, nil
}

// UpdatePrice applies an inline edit and returns the updated visa.
func (r *VisaRepository) UpdatePrice(ctx context.Context, id string, edit models.PriceEdit) (*models.Visa, error) {
	const q = `
        UPDATE visas v SET
            retail_price = COALESCE($2, v.retail_price),
            agent_standard_price = COALESCE($3, v.agent_standard_price),
            updated_at = NOW()
        WHERE v.id = $1
        RETURNING ` + visaColumns

	var v models.Visa
	if err := r.db.GetContext(ctx, &v, q, id, edit.RetailPrice, edit.AgentStandardPrice); err != nil {
		if errors.Is(err, sql.ErrNoRows) || badID(err) {
			return nil, utils.NotFound("visa", id)
		}
		return nil, err
	}
	return &v, nil
}

// ApplyPriceUpdates writes every update in one transaction. Either all rows
// change or none do.
func (r *VisaRepository) ApplyPriceUpdates(ctx context.Context, updates []models.PriceUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, u := range updates {
			if !u.Target.Valid() {
				return fmt.Errorf("unknown price target %q", u.Target)
			}
			// Target is whitelisted above.
			q := `UPDATE visas SET ` + string(u.Target) + ` = $1, updated_at = NOW() WHERE id = $2`
			res, err := tx.ExecContext(ctx, q, u.Value, u.VisaID)
			if err != nil {
				return fmt.Errorf("update visa %s: %w", u.VisaID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return utils.NotFound("visa", u.VisaID)
			}
		}
		return nil
	})
}

// Options returns the distinct countries and entry types.
func (r *VisaRepository) Options(ctx context.Context) (*models.VisaOptions, error) {
	opts := &models.VisaOptions{Countries: []string{}, Types: []string{}}
	if err := r.db.SelectContext(ctx, &opts.Countries, `SELECT DISTINCT country FROM visas ORDER BY country`); err != nil {
		return nil, fmt.Errorf("select countries: %w", err)
	}
	if err := r.db.SelectContext(ctx, &opts.Types, `SELECT DISTINCT entry_type FROM visas ORDER BY entry_type`); err != nil {
		return nil, fmt.Errorf("select entry types: %w", err)
	}
	return opts, nil
}

// Ping reports whether the database answers.
func (r *VisaRepository) Ping(ctx context.Context) error {
	return database.Ping(ctx, r.db, 2*time.Second)
}

// dateString formats t as a DATE literal in t's own location so a business
// day never shifts across the session time zone.
func dateString(t time.Time) string {
	return t.Format("2006-01-02")
}

// dateArg is dateString for nullable dates.
func dateArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return dateString(*t)
}
