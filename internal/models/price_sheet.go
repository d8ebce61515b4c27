package models

import "time"

// PriceSheetOptions selects the columns and rows of a printable price list.
// An empty VisaIDs prints every visa matching Filter.
type PriceSheetOptions struct {
	Filter            VisaFilter
	VisaIDs           []string
	ShowRetail        bool
	ShowAgentStandard bool
	ShowPromo         bool
	AgentID           string
}

// PriceSheet is a rendered-ready price list.
type PriceSheet struct {
	Title             string          `json:"title"`
	GeneratedAt       time.Time       `json:"generatedAt"`
	AgentID           string          `json:"agentId,omitempty"`
	AgentName         string          `json:"agentName,omitempty"`
	ShowRetail        bool            `json:"showRetail"`
	ShowAgentStandard bool            `json:"showAgentStandard"`
	ShowPromo         bool            `json:"showPromo"`
	Rows              []PriceSheetRow `json:"rows"`
}

// HasAgent reports whether the sheet carries a special price column.
func (s *PriceSheet) HasAgent() bool {
	return s.AgentID != ""
}

// PriceSheetRow is one visa line of a price sheet.
type PriceSheetRow struct {
	VisaID             string   `json:"visaId"`
	Name               string   `json:"name"`
	Country            string   `json:"country"`
	Type               string   `json:"type"`
	Currency           string   `json:"currency"`
	RetailPrice        int64    `json:"price"`
	AgentStandardPrice *int64   `json:"priceAgent,omitempty"`
	SpecialPrice       *int64   `json:"specialPrice,omitempty"`
	SpecialNote        *string  `json:"specialNote,omitempty"`
	Promos             []string `json:"promos,omitempty"`
}
