package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// AgentRepository handles data access for travel agents.
type AgentRepository struct {
	db *sqlx.DB
}

// NewAgentRepository creates a new AgentRepository.
func NewAgentRepository(db *sqlx.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// Search matches query against agent and company names, case-insensitively.
// An empty query returns the first agents by name.
func (r *AgentRepository) Search(ctx context.Context, query string, limit int) ([]models.AgentSummary, error) {
	const q = `
        SELECT id, name, company_name FROM agents
        WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR company_name ILIKE '%' || $1 || '%')
        ORDER BY name
        LIMIT $2`

	agents := []models.AgentSummary{}
	if err := r.db.SelectContext(ctx, &agents, q, strings.TrimSpace(query), limit); err != nil {
		return nil, fmt.Errorf("search agents: %w", err)
	}
	return agents, nil
}

// GetByID returns a single agent.
func (r *AgentRepository) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	const q = `SELECT id, name, company_name, email, phone, created_at, updated_at FROM agents WHERE id = $1`
	var a models.Agent
	if err := r.db.GetContext(ctx, &a, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || badID(err) {
			return nil, utils.NotFound("agent", id)
		}
		return nil, err
	}
	return &a, nil
}
