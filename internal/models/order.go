package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// BreakdownEntry is one jurisdiction's contribution to the order's tax.
// Rate is rendered as a 4-digit decimal string; TaxAmount is the component
// tax rounded independently to 2 fractional digits.
type BreakdownEntry struct {
	Name      string          `json:"name"`
	Rate      string          `json:"rate"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
}

// Order is an immutable ledger entry produced by processing a single
// point-of-sale order. It captures the inputs, the geocode resolution, and
// the full tax computation. Orders are never updated after insert.
type Order struct {
	ID             int64            `json:"id"`
	Lat            decimal.Decimal  `json:"lat"`
	Lon            decimal.Decimal  `json:"lon"`
	Subtotal       decimal.Decimal  `json:"subtotal"`
	OrderTimestamp time.Time        `json:"order_timestamp"`
	GeoState       string           `json:"geo_state"`
	GeoCounty      string           `json:"geo_county"`
	GeoLocality    *string          `json:"geo_locality,omitempty"`
	GeoSource      string           `json:"geo_source"`
	GeoRawResponse json.RawMessage  `json:"geo_raw_response"`
	CompositeRate  decimal.Decimal  `json:"composite_rate"`
	TaxAmount      decimal.Decimal  `json:"tax_amount"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	Jurisdictions  []string         `json:"jurisdictions"`
	Breakdown      []BreakdownEntry `json:"breakdown"`
	ImportJobID    *int64           `json:"import_job_id,omitempty"`
	ImportRowIndex *int             `json:"import_row_index,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}
