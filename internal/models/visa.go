package models

import (
	"errors"
	"fmt"
	"time"
)

// EntryType enumerates visa entry types.
type EntryType string

const (
	EntrySingle   EntryType = "Single"
	EntryDouble   EntryType = "Double"
	EntryMultiple EntryType = "Multiple"
)

// TimingType selects which timing columns are populated.
type TimingType string

const (
	TimingFix   TimingType = "fix"
	TimingRange TimingType = "range"
)

// Timing is a duration in days expressed either as a fixed value or a range.
type Timing struct {
	Type TimingType `json:"type"`
	Fix  *int       `json:"fix,omitempty"`
	Min  *int       `json:"min,omitempty"`
	Max  *int       `json:"max,omitempty"`
}

// Validate enforces that exactly one of fix or (min, max) is populated,
// matching Type.
func (t Timing) Validate() error {
	switch t.Type {
	case TimingFix:
		if t.Fix == nil {
			return errors.New("fixed timing requires a value")
		}
		if t.Min != nil || t.Max != nil {
			return errors.New("fixed timing must not carry a range")
		}
		if *t.Fix < 0 {
			return errors.New("timing must be >= 0")
		}
	case TimingRange:
		if t.Min == nil || t.Max == nil {
			return errors.New("range timing requires min and max")
		}
		if t.Fix != nil {
			return errors.New("range timing must not carry a fixed value")
		}
		if *t.Min < 0 || *t.Min > *t.Max {
			return fmt.Errorf("invalid range %d-%d", *t.Min, *t.Max)
		}
	default:
		return fmt.Errorf("unknown timing type %q", t.Type)
	}
	return nil
}

// Days returns the fixed value, or the upper bound of a range. Unset timing
// yields 0.
func (t Timing) Days() int {
	switch {
	case t.Type == TimingFix && t.Fix != nil:
		return *t.Fix
	case t.Type == TimingRange && t.Max != nil:
		return *t.Max
	}
	return 0
}

// Visa is a sellable visa product configuration.
// Timing columns are stored flat; the accessor methods read them as Timing.
type Visa struct {
	ID                 string    `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	Country            string    `db:"country" json:"country"`
	Purpose            *string   `db:"purpose" json:"purpose,omitempty"`
	Category           *string   `db:"category" json:"category,omitempty"`
	EntryType          EntryType `db:"entry_type" json:"type"`
	Currency           string    `db:"currency" json:"currency"`
	RetailPrice        int64     `db:"retail_price" json:"price"`
	AgentStandardPrice *int64    `db:"agent_standard_price" json:"priceAgent"`

	StayDurationType *string `db:"stay_duration_type" json:"stayDurationType,omitempty"`
	StayDurationFix  *int    `db:"stay_duration_fix" json:"stayDurationFix,omitempty"`
	StayDurationMin  *int    `db:"stay_duration_min" json:"stayDurationMin,omitempty"`
	StayDurationMax  *int    `db:"stay_duration_max" json:"stayDurationMax,omitempty"`

	ValidityType *string `db:"validity_type" json:"validityType,omitempty"`
	ValidityFix  *int    `db:"validity_fix" json:"validityFix,omitempty"`
	ValidityMin  *int    `db:"validity_min" json:"validityMin,omitempty"`
	ValidityMax  *int    `db:"validity_max" json:"validityMax,omitempty"`

	ProcessingTimeType *string `db:"processing_time_type" json:"processingTimeType,omitempty"`
	ProcessingTimeFix  *int    `db:"processing_time_fix" json:"processingTimeFix,omitempty"`
	ProcessingTimeMin  *int    `db:"processing_time_min" json:"processingTimeMin,omitempty"`
	ProcessingTimeMax  *int    `db:"processing_time_max" json:"processingTimeMax,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func timing(typ *string, fix, min, max *int) Timing {
	t := Timing{Fix: fix, Min: min, Max: max}
	if typ != nil {
		t.Type = TimingType(*typ)
	}
	return t
}

// StayDuration returns the stay duration timing.
func (v *Visa) StayDuration() Timing {
	return timing(v.StayDurationType, v.StayDurationFix, v.StayDurationMin, v.StayDurationMax)
}

// Validity returns the validity period timing.
func (v *Visa) Validity() Timing {
	return timing(v.ValidityType, v.ValidityFix, v.ValidityMin, v.ValidityMax)
}

// ProcessingTime returns the processing time timing.
func (v *Visa) ProcessingTime() Timing {
	return timing(v.ProcessingTimeType, v.ProcessingTimeFix, v.ProcessingTimeMin, v.ProcessingTimeMax)
}

// ProcessingDays is the processing estimate used for deadlines: the fixed
// value or the upper bound of the range.
func (v *Visa) ProcessingDays() int {
	return v.ProcessingTime().Days()
}

// PricingView is a visa row joined with counts of its pricing overrides.
type PricingView struct {
	Visa
	SpecialPriceCount   int `db:"special_price_count" json:"specialPriceCount"`
	ActiveCampaignCount int `db:"active_campaign_count" json:"activeCampaignCount"`
}

// PriceTarget names the visa price column a bulk update writes.
type PriceTarget string

const (
	TargetRetail        PriceTarget = "retail_price"
	TargetAgentStandard PriceTarget = "agent_standard_price"
)

// Valid reports whether t is a known price column.
func (t PriceTarget) Valid() bool {
	return t == TargetRetail || t == TargetAgentStandard
}

// PriceUpdate is one visa price write.
type PriceUpdate struct {
	VisaID string
	Target PriceTarget
	Value  int64
}

// PriceEdit is an inline edit of one visa's prices. Nil fields are left unchanged.
type PriceEdit struct {
	RetailPrice        *int64 `json:"price"`
	AgentStandardPrice *int64 `json:"priceAgent"`
}

// Empty reports whether the edit changes nothing.
func (e PriceEdit) Empty() bool {
	return e.RetailPrice == nil && e.AgentStandardPrice == nil
}

// VisaFilter narrows the pricing view. Zero values disable a filter.
type VisaFilter struct {
	Search    string
	Countries []string
	Types     []string
	MinPrice  *int64
	MaxPrice  *int64
}

// VisaOptions lists the distinct values available to the pricing filters.
type VisaOptions struct {
	Countries []string `json:"countries"`
	Types     []string `json:"types"`
}
