package geometry

import (
	"encoding/json"
	"fmt"
	"os"
)

// Ring is an ordered sequence of [lon, lat] vertices. Rings are treated as
// implicitly closed: the last vertex connects back to the first.
type Ring [][2]float64

// Polygon is a set of rings. The first ring is the exterior boundary;
// subsequent rings are holes.
type Polygon []Ring

// MultiPolygon is a set of member polygons.
type MultiPolygon []Polygon

// Geometry holds a GeoJSON geometry with coordinates decoded lazily, since
// the shape of the coordinates array depends on the geometry type.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Feature is a single GeoJSON feature.
type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   *Geometry              `json:"geometry"`
}

// FeatureCollection is the top-level GeoJSON document holding the county
// polygons.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Polygon decodes the coordinates as a GeoJSON Polygon.
func (g *Geometry) Polygon() (Polygon, error) {
	if g.Type != "Polygon" {
		return nil, fmt.Errorf("expected Polygon geometry, got %s", g.Type)
	}
	var coords Polygon
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to decode polygon coordinates: %w", err)
	}
	return coords, nil
}

// MultiPolygon decodes the coordinates as a GeoJSON MultiPolygon.
func (g *Geometry) MultiPolygon() (MultiPolygon, error) {
	if g.Type != "MultiPolygon" {
		return nil, fmt.Errorf("expected MultiPolygon geometry, got %s", g.Type)
	}
	var coords MultiPolygon
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to decode multipolygon coordinates: %w", err)
	}
	return coords, nil
}

// StringProperty returns the named feature property as a string, or an empty
// string when the property is absent or not a string.
func (f *Feature) StringProperty(key string) string {
	if f.Properties == nil {
		return ""
	}
	if v, ok := f.Properties[key].(string); ok {
		return v
	}
	return ""
}

// LoadFeatureCollection reads and parses a GeoJSON FeatureCollection file.
func LoadFeatureCollection(path string) (*FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geojson file %s: %w", path, err)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse geojson file %s: %w", path, err)
	}

	return &fc, nil
}
