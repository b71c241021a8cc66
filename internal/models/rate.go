package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateRecord is one row of the temporal rate table. A record applies over the
// half-open window [ValidFrom, ValidTo); a nil ValidTo means open-ended.
// An empty County marks the state-level generic fallback row.
type RateRecord struct {
	ID           int64            `json:"id"`
	State        string           `json:"state"`
	County       string           `json:"county"`
	Locality     *string          `json:"locality,omitempty"`
	RateState    decimal.Decimal  `json:"rate_state"`
	RateCounty   decimal.Decimal  `json:"rate_county"`
	RateLocality decimal.Decimal  `json:"rate_locality"`
	RateSpecial  *decimal.Decimal `json:"rate_special,omitempty"`
	ValidFrom    time.Time        `json:"valid_from"`
	ValidTo      *time.Time       `json:"valid_to,omitempty"`
}

// CompositeRate returns the sum of all rate components, treating an absent
// special rate as zero. Expressed with 4 fractional digits.
func (r *RateRecord) CompositeRate() decimal.Decimal {
	composite := r.RateState.Add(r.RateCounty).Add(r.RateLocality)
	if r.RateSpecial != nil {
		composite = composite.Add(*r.RateSpecial)
	}
	return composite
}

// LocalityName returns the locality or an empty string when absent.
func (r *RateRecord) LocalityName() string {
	if r.Locality == nil {
		return ""
	}
	return *r.Locality
}
