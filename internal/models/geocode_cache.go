package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// GeocodeCacheEntry is a durable record of one resolver output, keyed by
// provider and the coordinates quantized to 4 fractional digits.
// CacheKey format: {provider}_{lat4}_{lon4}, e.g. "nominatim_40.7128_-74.0060".
type GeocodeCacheEntry struct {
	ID          int64           `json:"id"`
	CacheKey    string          `json:"cache_key"`
	Provider    string          `json:"provider"`
	LatRounded  decimal.Decimal `json:"lat_rounded"`
	LonRounded  decimal.Decimal `json:"lon_rounded"`
	State       string          `json:"state"`
	County      string          `json:"county"`
	Locality    *string         `json:"locality,omitempty"`
	RawResponse json.RawMessage `json:"raw_response"`
	CreatedAt   time.Time       `json:"created_at"`
}
