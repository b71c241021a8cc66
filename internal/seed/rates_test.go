package seed

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRecords(t *testing.T) {
	records := Records()
	if len(records) != 23 {
		t.Fatalf("Expected 23 seed records, got %d", len(records))
	}

	byCounty := make(map[string]int)
	for i, record := range records {
		if record.State != "New York" {
			t.Errorf("Record %d has state %q", i, record.State)
		}
		if !record.RateState.Equal(decimal.RequireFromString("0.0400")) {
			t.Errorf("Record %d has state rate %s", i, record.RateState)
		}
		if record.RateSpecial != nil {
			t.Errorf("Record %d unexpectedly has a special rate", i)
		}
		if record.ValidFrom.Year() != 2020 {
			t.Errorf("Record %d valid_from is %v", i, record.ValidFrom)
		}
		byCounty[record.County] = i
	}

	// Spot checks against the published NYS combined rates.
	kings := records[byCounty["Kings"]]
	if kings.RateCounty.String() != "0.0488" {
		t.Errorf("Kings county rate = %s, want 0.0488", kings.RateCounty)
	}
	if kings.CompositeRate().String() != "0.0888" {
		t.Errorf("Kings composite = %s, want 0.0888", kings.CompositeRate())
	}

	// The generic fallback row is last: NY nexus with 0% county tax.
	last := records[len(records)-1]
	if last.County != "" {
		t.Errorf("Expected trailing generic row, got county %q", last.County)
	}
	if !last.RateCounty.IsZero() {
		t.Errorf("Generic row county rate = %s, want 0", last.RateCounty)
	}
	if last.CompositeRate().String() != "0.04" {
		t.Errorf("Generic composite = %s, want 0.04", last.CompositeRate())
	}
}
