package geocode

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Provider name constants. These are stable identifiers: they appear in cache
// keys and are persisted on orders as geo_source.
const (
	ProviderPolygon   = "polygon"
	ProviderNearest   = "nearest"
	ProviderNominatim = "nominatim"
	ProviderMock      = "mock"
)

// Result is the outcome of resolving a coordinate pair to a jurisdictional
// triple. Locality is empty when the provider could not determine one.
type Result struct {
	State       string
	County      string
	Locality    string
	RawResponse json.RawMessage
	LatRounded  decimal.Decimal
	LonRounded  decimal.Decimal
}

// Resolver maps a coordinate to the taxing jurisdictions that contain it.
// Implementations are selected at construction time and must be safe for
// concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) (*Result, error)
	ProviderName() string
}

// RoundCoord quantizes a coordinate to 4 fractional digits with half-up
// rounding. This gives roughly 11 m of resolution and bounds the cache
// cardinality.
func RoundCoord(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(4)
}

// CacheKey builds the canonical cache key for a provider and quantized
// coordinates. Decimals are formatted fixed-point with all 4 fractional
// digits, e.g. "nominatim_40.7128_-74.0060".
func CacheKey(provider string, latRounded, lonRounded decimal.Decimal) string {
	return fmt.Sprintf("%s_%s_%s", provider, latRounded.StringFixed(4), lonRounded.StringFixed(4))
}
