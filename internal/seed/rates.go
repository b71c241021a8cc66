package seed

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/geotax/api/internal/logger"
	"github.com/geotax/api/internal/models"
	"github.com/geotax/api/internal/repository"
)

// rateValidFrom is fixed in the past so seeded rates apply to orders with any
// timestamp, including past-dated CSV imports.
var rateValidFrom = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// nysStateRate is the New York State base sales tax rate, 4%.
var nysStateRate = decimal.New(400, -4)

// nysCountyRates holds the per-county rate component, keyed by the county
// name as the geocode layer normalizes it (no " County" suffix). The trailing
// empty-county entry is the generic state fallback: NY nexus, 0% county tax.
var nysCountyRates = []struct {
	County string
	Rate   string
}{
	{"Albany", "0.0400"},
	{"Allegany", "0.0450"},
	{"Bronx", "0.0488"},
	{"Broome", "0.0400"},
	{"Cattaraugus", "0.0475"},
	{"Cayuga", "0.0400"},
	{"Chautauqua", "0.0400"},
	{"Chemung", "0.0400"},
	{"Dutchess", "0.0413"},
	{"Erie", "0.0475"},
	{"Kings", "0.0488"},
	{"Nassau", "0.0488"},
	{"New York", "0.0488"},
	{"Niagara", "0.0475"},
	{"Oneida", "0.0475"},
	{"Orange", "0.0413"},
	{"Putnam", "0.0413"},
	{"Queens", "0.0488"},
	{"Richmond", "0.0488"},
	{"Rockland", "0.0413"},
	{"Suffolk", "0.0463"},
	{"Westchester", "0.0438"},
	{"", "0.0000"},
}

// Records builds the full seed set for the rate table.
func Records() []models.RateRecord {
	records := make([]models.RateRecord, 0, len(nysCountyRates))
	for _, entry := range nysCountyRates {
		records = append(records, models.RateRecord{
			State:        "New York",
			County:       entry.County,
			RateState:    nysStateRate,
			RateCounty:   decimal.RequireFromString(entry.Rate),
			RateLocality: decimal.Zero,
			ValidFrom:    rateValidFrom,
		})
	}
	return records
}

// Run replaces the rate table with the NYS seed set. Safe to rerun; each run
// fully reloads the table.
func Run(ctx context.Context, rates repository.RateRepository, log *logger.Logger) error {
	records := Records()
	if err := rates.ReplaceAll(ctx, records); err != nil {
		return err
	}
	log.Info("Seeded tax rates", map[string]interface{}{
		"count": len(records),
		"state": "New York",
	})
	return nil
}
