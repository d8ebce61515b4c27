package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_visa/internal/database"
	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

const specialPriceColumns = `id, visa_id, agent_id, price, notes, created_at, last_updated_at`

// SpecialPriceRepository handles data access for agent special prices.
type SpecialPriceRepository struct {
	db *sqlx.DB
}

// NewSpecialPriceRepository creates a new SpecialPriceRepository.
func NewSpecialPriceRepository(db *sqlx.DB) *SpecialPriceRepository {
	return &SpecialPriceRepository{db: db}
}

// ListByVisa returns the special prices of one visa with the agent label
// joined in. Rows whose agent was deleted are labelled Unknown.
func (r *SpecialPriceRepository) ListByVisa(ctx context.Context, visaID string) ([]models.AgentSpecialPrice, error) {
	const q = `
        SELECT sp.id, sp.visa_id, sp.agent_id, sp.price, sp.notes, sp.created_at, sp.last_updated_at,
               a.name AS agent_name, a.company_name AS agent_company_name
        FROM agent_special_prices sp
        LEFT JOIN agents a ON a.id = sp.agent_id
        WHERE sp.visa_id = $1
        ORDER BY a.name NULLS LAST, sp.created_at`

	prices := []models.AgentSpecialPrice{}
	if err := r.db.SelectContext(ctx, &prices, q, visaID); err != nil {
		if badID(err) {
			return []models.AgentSpecialPrice{}, nil
		}
		return nil, fmt.Errorf("list special prices: %w", err)
	}
	for i := range prices {
		prices[i].FillAgent()
	}
	return prices, nil
}

// Upsert writes the special price of a (visa, agent) pair. The pair is looked
// up first and updated in place, or inserted when absent, inside one
// transaction.
func (r *SpecialPriceRepository) Upsert(ctx context.Context, in models.SpecialPriceInput) (*models.AgentSpecialPrice, error) {
	var out models.AgentSpecialPrice
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var id string
		err := tx.GetContext(ctx, &id,
			`SELECT id FROM agent_special_prices WHERE visa_id = $1 AND agent_id = $2 FOR UPDATE`,
			in.VisaID, in.AgentID)
		switch {
		case err == nil:
			return tx.GetContext(ctx, &out, `
                UPDATE agent_special_prices
                SET price = $2, notes = $3, last_updated_at = NOW()
                WHERE id = $1
                RETURNING `+specialPriceColumns, id, in.Price, in.Notes)
		case errors.Is(err, sql.ErrNoRows):
			return tx.GetContext(ctx, &out, `
                INSERT INTO agent_special_prices (visa_id, agent_id, price, notes)
                VALUES ($1, $2, $3, $4)
                RETURNING `+specialPriceColumns, in.VisaID, in.AgentID, in.Price, in.Notes)
		default:
			return err
		}
	})
	if badID(err) || pqCode(err) == pqForeignKey {
		return nil, utils.NotFound("visa or agent", in.VisaID+"/"+in.AgentID)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert special price %s/%s: %w", in.VisaID, in.AgentID, err)
	}
	return &out, nil
}

// Delete removes a special price by id.
func (r *SpecialPriceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM agent_special_prices WHERE id = $1`, id)
	if badID(err) {
		return utils.NotFound("special price", id)
	}
	if err != nil {
		return fmt.Errorf("delete special price: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.NotFound("special price", id)
	}
	return nil
}

// ListByAgent returns one agent's overrides across all visas.
func (r *SpecialPriceRepository) ListByAgent(ctx context.Context, agentID string) ([]models.AgentOverride, error) {
	const q = `SELECT visa_id, price, notes FROM agent_special_prices WHERE agent_id = $1`
	overrides := []models.AgentOverride{}
	if err := r.db.SelectContext(ctx, &overrides, q, agentID); err != nil {
		if badID(err) {
			return []models.AgentOverride{}, nil
		}
		return nil, fmt.Errorf("list agent overrides: %w", err)
	}
	return overrides, nil
}
