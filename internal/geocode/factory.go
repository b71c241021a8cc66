package geocode

import (
	"fmt"

	"github.com/geotax/api/internal/config"
	"github.com/geotax/api/internal/logger"
)

// NewResolver builds the resolver selected by configuration. The cache store
// is only consulted by the nominatim provider; the offline providers ignore
// it.
func NewResolver(cfg config.GeocodeConfig, cache CacheStore, log *logger.Logger) (Resolver, error) {
	switch cfg.Provider {
	case ProviderPolygon:
		return NewPolygonResolver(cfg.GeoJSONPath), nil
	case ProviderNearest:
		return NewNearestResolver(), nil
	case ProviderNominatim:
		return NewNominatimResolver(cfg.NominatimURL, cfg.UserAgent, cache, log), nil
	default:
		return nil, fmt.Errorf("unknown geocode provider %q", cfg.Provider)
	}
}
