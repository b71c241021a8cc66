package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/geotax/api/internal/geometry"
)

// collection caches the parsed county boundary file process-wide. The file is
// immutable for the life of the process, so it is loaded exactly once
// regardless of how many resolvers or goroutines ask for it.
var (
	collectionOnce sync.Once
	collectionData *geometry.FeatureCollection
	collectionErr  error
)

func loadCollection(path string) (*geometry.FeatureCollection, error) {
	collectionOnce.Do(func() {
		collectionData, collectionErr = geometry.LoadFeatureCollection(path)
	})
	return collectionData, collectionErr
}

// PolygonResolver answers lookups by point-in-polygon containment against a
// county boundary GeoJSON file. It never performs network I/O.
type PolygonResolver struct {
	path string
	// load is swappable for tests; defaults to the process-wide cached loader.
	load func(path string) (*geometry.FeatureCollection, error)
}

// NewPolygonResolver creates a resolver backed by the boundary file at path.
// The file is not read until the first Resolve call.
func NewPolygonResolver(path string) *PolygonResolver {
	return &PolygonResolver{path: path, load: loadCollection}
}

func (r *PolygonResolver) ProviderName() string {
	return ProviderPolygon
}

// Resolve locates the first feature containing the point. A containing county
// yields state "New York" with the normalized county name; a miss yields the
// sentinel "Out of State" with an empty county. The polygon provider never
// produces a locality.
func (r *PolygonResolver) Resolve(ctx context.Context, lat, lon float64) (*Result, error) {
	fc, err := r.load(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to load county boundaries: %w", err)
	}

	result := &Result{
		LatRounded: RoundCoord(lat),
		LonRounded: RoundCoord(lon),
	}

	feature := geometry.FindContainingFeature(lon, lat, fc)
	if feature == nil {
		result.State = "Out of State"
		result.RawResponse = json.RawMessage(`{"matched": false}`)
		return result, nil
	}

	name := feature.StringProperty("name")
	result.State = "New York"
	result.County = NormalizeCounty(name, "")

	raw, err := json.Marshal(map[string]interface{}{
		"matched": true,
		"feature": feature.Properties,
	})
	if err != nil {
		raw = json.RawMessage(`{"matched": true}`)
	}
	result.RawResponse = raw

	return result, nil
}
