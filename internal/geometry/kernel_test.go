package geometry

import (
	"encoding/json"
	"testing"
)

// unitSquare is a simple closed ring around (0,0)..(10,10).
func unitSquare() Ring {
	return Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
}

func TestPointInRing(t *testing.T) {
	square := unitSquare()

	tests := []struct {
		name     string
		lon, lat float64
		want     bool
	}{
		{"center", 5, 5, true},
		{"outside right", 15, 5, false},
		{"outside above", 5, 15, false},
		{"outside below", 5, -1, false},
		{"near corner inside", 0.001, 0.001, true},
		{"far away negative", -100, -100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInRing(tt.lon, tt.lat, square); got != tt.want {
				t.Errorf("PointInRing(%v, %v) = %v, want %v", tt.lon, tt.lat, got, tt.want)
			}
		})
	}
}

func TestPointInRing_EmptyRing(t *testing.T) {
	if PointInRing(1, 1, Ring{}) {
		t.Error("Expected empty ring to contain nothing")
	}
}

func TestPointInRing_SharedEdgeBelongsToExactlyOne(t *testing.T) {
	// Two squares sharing the vertical edge x=10. A point on that edge must
	// be inside exactly one of them.
	left := Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	right := Ring{{10, 0}, {20, 0}, {20, 10}, {10, 10}}

	inLeft := PointInRing(10, 5, left)
	inRight := PointInRing(10, 5, right)

	if inLeft == inRight {
		t.Errorf("Point on shared edge must belong to exactly one ring: left=%v right=%v", inLeft, inRight)
	}
}

func TestPointInRing_HorizontalBoundary(t *testing.T) {
	square := unitSquare()

	// Half-open convention: lower boundary inside, upper boundary outside.
	if !PointInRing(5, 0, square) {
		t.Error("Expected point on lower boundary to be inside")
	}
	if PointInRing(5, 10, square) {
		t.Error("Expected point on upper boundary to be outside")
	}
}

func TestPointInPolygon_WithHole(t *testing.T) {
	polygon := Polygon{
		unitSquare(),
		// Hole in the middle
		{{4, 4}, {6, 4}, {6, 6}, {4, 6}},
	}

	tests := []struct {
		name     string
		lon, lat float64
		want     bool
	}{
		{"inside exterior, outside hole", 2, 2, true},
		{"inside hole", 5, 5, false},
		{"outside exterior", 20, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInPolygon(tt.lon, tt.lat, polygon); got != tt.want {
				t.Errorf("PointInPolygon(%v, %v) = %v, want %v", tt.lon, tt.lat, got, tt.want)
			}
		})
	}
}

func TestPointInPolygon_EmptyPolygon(t *testing.T) {
	if PointInPolygon(5, 5, Polygon{}) {
		t.Error("Expected empty polygon to contain nothing")
	}
}

func TestPointInMultiPolygon(t *testing.T) {
	mp := MultiPolygon{
		{unitSquare()},
		{{{20, 20}, {30, 20}, {30, 30}, {20, 30}}},
	}

	if !PointInMultiPolygon(5, 5, mp) {
		t.Error("Expected point in first member polygon")
	}
	if !PointInMultiPolygon(25, 25, mp) {
		t.Error("Expected point in second member polygon")
	}
	if PointInMultiPolygon(15, 15, mp) {
		t.Error("Expected point between members to be outside")
	}
}

const testGeoJSON = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"name": "Linear Thing"},
			"geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}
		},
		{
			"type": "Feature",
			"properties": {"name": "West County", "geoid": "36001"},
			"geometry": {
				"type": "Polygon",
				"coordinates": [[[0, 0], [10, 0], [10, 10], [0, 10]]]
			}
		},
		{
			"type": "Feature",
			"properties": {"name": "East County", "geoid": "36002"},
			"geometry": {
				"type": "MultiPolygon",
				"coordinates": [
					[[[20, 0], [30, 0], [30, 10], [20, 10]]],
					[[[40, 0], [50, 0], [50, 10], [40, 10]]]
				]
			}
		}
	]
}`

func loadTestCollection(t *testing.T) *FeatureCollection {
	t.Helper()
	var fc FeatureCollection
	if err := json.Unmarshal([]byte(testGeoJSON), &fc); err != nil {
		t.Fatalf("Failed to parse test geojson: %v", err)
	}
	return &fc
}

func TestFindContainingFeature(t *testing.T) {
	fc := loadTestCollection(t)

	tests := []struct {
		name     string
		lon, lat float64
		wantName string
	}{
		{"polygon feature", 5, 5, "West County"},
		{"first member of multipolygon", 25, 5, "East County"},
		{"second member of multipolygon", 45, 5, "East County"},
		{"no containing feature", 100, 100, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feature := FindContainingFeature(tt.lon, tt.lat, fc)
			if tt.wantName == "" {
				if feature != nil {
					t.Errorf("Expected no feature, got %v", feature.Properties)
				}
				return
			}
			if feature == nil {
				t.Fatal("Expected a containing feature, got nil")
			}
			if got := feature.StringProperty("name"); got != tt.wantName {
				t.Errorf("Expected feature %s, got %s", tt.wantName, got)
			}
		})
	}
}

func TestFindContainingFeature_NilCollection(t *testing.T) {
	if FindContainingFeature(0, 0, nil) != nil {
		t.Error("Expected nil for nil collection")
	}
}

func TestFindContainingFeature_SkipsNonAreaGeometries(t *testing.T) {
	fc := loadTestCollection(t)

	// The LineString feature is listed first but must never match.
	feature := FindContainingFeature(0.5, 0.5, fc)
	if feature == nil {
		t.Fatal("Expected polygon feature to contain the point")
	}
	if got := feature.StringProperty("name"); got != "West County" {
		t.Errorf("Expected West County, got %s", got)
	}
}

func TestStringProperty(t *testing.T) {
	f := Feature{Properties: map[string]interface{}{"name": "Kings", "geoid": 36047}}

	if got := f.StringProperty("name"); got != "Kings" {
		t.Errorf("Expected Kings, got %q", got)
	}
	// Non-string property values return empty rather than panicking.
	if got := f.StringProperty("geoid"); got != "" {
		t.Errorf("Expected empty for non-string property, got %q", got)
	}
	if got := f.StringProperty("missing"); got != "" {
		t.Errorf("Expected empty for missing property, got %q", got)
	}
}
