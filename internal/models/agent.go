package models

import "time"

// UnknownAgentName is displayed when a special price outlives its agent.
const UnknownAgentName = "Unknown"

// Agent is a travel agent that can receive special prices.
type Agent struct {
	ID          string     `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	CompanyName *string    `db:"company_name" json:"companyName,omitempty"`
	Email       *string    `db:"email" json:"email,omitempty"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	CreatedAt   *time.Time `db:"created_at" json:"-"`
	UpdatedAt   *time.Time `db:"updated_at" json:"-"`
}

// AgentSummary is the short agent shape returned by searches and joins.
type AgentSummary struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	CompanyName *string `db:"company_name" json:"companyName,omitempty"`
}
