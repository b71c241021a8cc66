package geocode

import (
	"context"
	"math"
	"testing"
)

func TestHaversineKM(t *testing.T) {
	// NYC to Buffalo is roughly 470 km.
	d := haversineKM(40.7128, -74.006, 42.8864, -78.8784)
	if d < 430 || d > 510 {
		t.Errorf("Expected NYC-Buffalo distance near 470km, got %f", d)
	}

	if d := haversineKM(40.7128, -74.006, 40.7128, -74.006); d > 1e-9 {
		t.Errorf("Expected zero distance for identical points, got %f", d)
	}
}

func TestNearestResolver_UpstateCounty(t *testing.T) {
	r := NewNearestResolver()

	// A point in downtown Rochester.
	result, err := r.Resolve(context.Background(), 43.157, -77.608)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if result.State != "New York" {
		t.Errorf("Expected New York, got %q", result.State)
	}
	if result.County != "Monroe" {
		t.Errorf("Expected Monroe, got %q", result.County)
	}
	if result.Locality != "Rochester" {
		t.Errorf("Expected Rochester, got %q", result.Locality)
	}
}

func TestNearestResolver_BoroughFallback(t *testing.T) {
	r := NewNearestResolver()

	// Downtown Brooklyn: the gazetteer record has no county, so the county
	// must come from the borough table.
	result, err := r.Resolve(context.Background(), 40.6782, -73.9442)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if result.County != "Kings" {
		t.Errorf("Expected Kings via borough fallback, got %q", result.County)
	}
	if result.Locality != "Brooklyn" {
		t.Errorf("Expected Brooklyn, got %q", result.Locality)
	}
}

func TestNearestResolver_OutOfState(t *testing.T) {
	r := NewNearestResolver()

	// Newark is the closest entry to this point.
	result, err := r.Resolve(context.Background(), 40.7357, -74.1724)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if result.State != "New Jersey" {
		t.Errorf("Expected New Jersey, got %q", result.State)
	}
	if result.County != "Essex" {
		t.Errorf("Expected Essex, got %q", result.County)
	}
}

func TestNearestResolver_RoundsCoordinates(t *testing.T) {
	r := NewNearestResolver()

	result, err := r.Resolve(context.Background(), 40.67824, -73.94416)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.LatRounded.StringFixed(4) != "40.6782" {
		t.Errorf("Expected 40.6782, got %s", result.LatRounded.StringFixed(4))
	}
	if result.LonRounded.StringFixed(4) != "-73.9442" {
		t.Errorf("Expected -73.9442, got %s", result.LonRounded.StringFixed(4))
	}
	if math.IsNaN(result.LatRounded.InexactFloat64()) {
		t.Error("Rounded latitude must be numeric")
	}
}
