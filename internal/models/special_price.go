package models

import "time"

// AgentSpecialPrice overrides the price one agent pays for one visa.
type AgentSpecialPrice struct {
	ID            string     `db:"id" json:"id"`
	VisaID        string     `db:"visa_id" json:"visaId"`
	AgentID       *string    `db:"agent_id" json:"agentId"`
	Price         int64      `db:"price" json:"price"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     *time.Time `db:"created_at" json:"createdAt,omitempty"`
	LastUpdatedAt *time.Time `db:"last_updated_at" json:"updatedAt,omitempty"`

	// Joined from agents; nil when the agent no longer exists.
	AgentName        *string `db:"agent_name" json:"-"`
	AgentCompanyName *string `db:"agent_company_name" json:"-"`

	Agent *AgentDisplay `db:"-" json:"agent,omitempty"`
}

// AgentDisplay is the agent label shown next to a special price.
type AgentDisplay struct {
	Name        string  `json:"name"`
	CompanyName *string `json:"companyName,omitempty"`
}

// FillAgent populates Agent from the joined columns, falling back to
// UnknownAgentName for orphaned rows.
func (p *AgentSpecialPrice) FillAgent() {
	if p.AgentName == nil {
		p.Agent = &AgentDisplay{Name: UnknownAgentName}
		return
	}
	p.Agent = &AgentDisplay{Name: *p.AgentName, CompanyName: p.AgentCompanyName}
}

// SpecialPriceInput is one upsert request for a (visa, agent) pair.
type SpecialPriceInput struct {
	VisaID  string  `json:"visaId"`
	AgentID string  `json:"agentId"`
	Price   int64   `json:"price"`
	Notes   *string `json:"notes"`
}

// AgentOverride is one entry of an agent's visa price map.
type AgentOverride struct {
	VisaID string  `db:"visa_id" json:"visaId"`
	Price  int64   `db:"price" json:"price"`
	Notes  *string `db:"notes" json:"notes,omitempty"`
}
