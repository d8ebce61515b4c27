package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Tier maps a closed quantity interval to a fixed price.
type Tier struct {
	Min   int   `json:"min"`
	Max   int   `json:"max"`
	Price int64 `json:"price"`
}

// Contains reports whether quantity falls inside [Min, Max].
func (t Tier) Contains(quantity int) bool {
	return quantity >= t.Min && quantity <= t.Max
}

// Tiers is the ordered rule list of a campaign, stored as JSONB.
type Tiers []Tier

// Value implements driver.Valuer.
func (t Tiers) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner.
func (t *Tiers) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tiers{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported tiers type %T", src)
	}
	return json.Unmarshal(raw, t)
}

// Clone returns a structural copy so per-visa campaigns never share a slice.
func (t Tiers) Clone() Tiers {
	out := make(Tiers, len(t))
	copy(out, t)
	return out
}

// Campaign is a time-boxed, quantity-tiered promotional price on one visa.
type Campaign struct {
	ID        string     `db:"id" json:"id"`
	VisaID    string     `db:"visa_id" json:"visaId"`
	Name      string     `db:"name" json:"name"`
	StartDate *time.Time `db:"start_date" json:"startDate"`
	EndDate   *time.Time `db:"end_date" json:"endDate"`
	IsActive  bool       `db:"is_active" json:"isActive"`
	Rules     Tiers      `db:"rules" json:"rules"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// ActiveAt reports whether the campaign applies on the calendar day of at:
// the active flag is set and the day falls inside the optional date window.
func (c *Campaign) ActiveAt(at time.Time) bool {
	if !c.IsActive {
		return false
	}
	y, m, d := at.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if c.StartDate != nil && day.Before(dateOnly(*c.StartDate)) {
		return false
	}
	if c.EndDate != nil && day.After(dateOnly(*c.EndDate)) {
		return false
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CampaignInput is the request shape for creating or updating a campaign.
// Dates are YYYY-MM-DD strings; empty means absent.
type CampaignInput struct {
	ID        string `json:"id"`
	VisaID    string `json:"visaId"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	IsActive  *bool  `json:"isActive"`
	Rules     Tiers  `json:"rules"`
}
