package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/geotax/api/internal/geocode"
	"github.com/geotax/api/internal/logger"
	"github.com/geotax/api/internal/models"
	"github.com/geotax/api/internal/repository"
)

// Coordinate validation constants
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Service-level errors
var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidSubtotal    = errors.New("invalid subtotal")
	ErrResolverFailure    = errors.New("geocode resolution failed")
)

// ProcessOrderInput carries everything needed to process one order. Subtotal
// stays a string until it is parsed exactly; float coercion on money is not
// acceptable. A nil Timestamp defaults to the current instant. The import
// fields are set only by the CSV pipeline and give the order its replay
// identity.
type ProcessOrderInput struct {
	Lat            float64
	Lon            float64
	Subtotal       string
	Timestamp      *time.Time
	ImportJobID    *int64
	ImportRowIndex *int
}

// TaxService defines the interface for order tax computation and bookkeeping.
type TaxService interface {
	// ProcessOrder resolves the jurisdiction for the coordinates, fetches the
	// applicable rate, computes the tax breakdown and persists the order.
	// Returns ErrInvalidCoordinates or ErrInvalidSubtotal for bad input and
	// ErrResolverFailure (wrapped) when the geocode provider fails.
	ProcessOrder(ctx context.Context, input ProcessOrderInput) (*models.Order, error)

	// ListOrders returns one page of persisted orders.
	ListOrders(ctx context.Context, ordering string, page int) (*repository.OrderPage, error)

	// ClearOrders removes every persisted order.
	ClearOrders(ctx context.Context) error
}

type taxService struct {
	resolver geocode.Resolver
	rates    repository.RateRepository
	orders   repository.OrderRepository
	log      *logger.Logger
}

// NewTaxService creates a new instance of TaxService.
func NewTaxService(resolver geocode.Resolver, rates repository.RateRepository, orders repository.OrderRepository, log *logger.Logger) TaxService {
	return &taxService{
		resolver: resolver,
		rates:    rates,
		orders:   orders,
		log:      log,
	}
}

func (s *taxService) ProcessOrder(ctx context.Context, input ProcessOrderInput) (*models.Order, error) {
	if input.Lat < MinLatitude || input.Lat > MaxLatitude {
		return nil, fmt.Errorf("%w: latitude must be between %v and %v, got %v",
			ErrInvalidCoordinates, MinLatitude, MaxLatitude, input.Lat)
	}
	if input.Lon < MinLongitude || input.Lon > MaxLongitude {
		return nil, fmt.Errorf("%w: longitude must be between %v and %v, got %v",
			ErrInvalidCoordinates, MinLongitude, MaxLongitude, input.Lon)
	}

	subtotal, err := parseSubtotal(input.Subtotal)
	if err != nil {
		return nil, err
	}

	orderTimestamp := time.Now().UTC()
	if input.Timestamp != nil {
		orderTimestamp = input.Timestamp.UTC()
	}

	resolved, err := s.resolver.Resolve(ctx, input.Lat, input.Lon)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolverFailure, err)
	}

	record, err := s.rates.FetchRate(ctx, resolved.State, resolved.County, resolved.Locality, orderTimestamp)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		Lat:            decimal.NewFromFloat(input.Lat).Round(6),
		Lon:            decimal.NewFromFloat(input.Lon).Round(6),
		Subtotal:       subtotal,
		OrderTimestamp: orderTimestamp,
		GeoState:       resolved.State,
		GeoCounty:      resolved.County,
		GeoSource:      s.resolver.ProviderName(),
		GeoRawResponse: resolved.RawResponse,
		Jurisdictions:  []string{},
		Breakdown:      []models.BreakdownEntry{},
		ImportJobID:    input.ImportJobID,
		ImportRowIndex: input.ImportRowIndex,
	}
	if resolved.Locality != "" {
		locality := resolved.Locality
		order.GeoLocality = &locality
	}

	compositeRate := decimal.Zero
	if record != nil {
		compositeRate = record.CompositeRate()
	}
	// A zero composite means no nexus; the order carries no jurisdictions
	// even when a (fully zero-rated) record matched.
	if compositeRate.IsPositive() {
		order.Jurisdictions = buildJurisdictions(record)
		order.Breakdown = buildBreakdown(record, subtotal)
	}

	// The composite multiplication is the authoritative total; summing the
	// individually rounded breakdown entries can land one cent off.
	order.CompositeRate = compositeRate
	order.TaxAmount = subtotal.Mul(compositeRate).Round(2)
	order.TotalAmount = subtotal.Add(order.TaxAmount)

	inserted, err := s.orders.Insert(ctx, order)
	if err != nil {
		return nil, err
	}
	if !inserted {
		s.log.Info("Order already persisted, skipping duplicate", map[string]interface{}{
			"import_job_id":    input.ImportJobID,
			"import_row_index": input.ImportRowIndex,
		})
	}

	return order, nil
}

func (s *taxService) ListOrders(ctx context.Context, ordering string, page int) (*repository.OrderPage, error) {
	return s.orders.List(ctx, ordering, page)
}

func (s *taxService) ClearOrders(ctx context.Context) error {
	return s.orders.DeleteAll(ctx)
}

// parseSubtotal parses a money amount exactly and quantizes it to cents.
// Negative amounts are rejected; so is anything that does not parse as a
// plain decimal number.
func parseSubtotal(raw string) (decimal.Decimal, error) {
	subtotal, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal amount", ErrInvalidSubtotal, raw)
	}
	if subtotal.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount must not be negative", ErrInvalidSubtotal)
	}
	return subtotal.Round(2), nil
}

// buildJurisdictions lists the taxing jurisdictions for a rate record:
// state, county (when present), locality when its rate applies, and the
// special district when a special rate applies.
func buildJurisdictions(record *models.RateRecord) []string {
	jurisdictions := []string{record.State}
	if record.County != "" {
		jurisdictions = append(jurisdictions, record.County)
	}
	if record.RateLocality.IsPositive() && record.LocalityName() != "" {
		jurisdictions = append(jurisdictions, record.LocalityName())
	}
	if record.RateSpecial != nil && record.RateSpecial.IsPositive() {
		jurisdictions = append(jurisdictions, "Special District")
	}
	return jurisdictions
}

// buildBreakdown produces one entry per nonzero rate component in fixed
// order: state, county, locality, special. Each component tax is rounded
// half away from zero on its own.
func buildBreakdown(record *models.RateRecord, subtotal decimal.Decimal) []models.BreakdownEntry {
	breakdown := []models.BreakdownEntry{}

	appendEntry := func(name string, rate decimal.Decimal) {
		if rate.IsZero() {
			return
		}
		breakdown = append(breakdown, models.BreakdownEntry{
			Name:      name,
			Rate:      rate.StringFixed(4),
			TaxAmount: subtotal.Mul(rate).Round(2),
		})
	}

	appendEntry(record.State, record.RateState)

	countyName := record.County
	if countyName == "" {
		countyName = "County (Generic)"
	}
	appendEntry(countyName, record.RateCounty)

	appendEntry(record.LocalityName(), record.RateLocality)

	if record.RateSpecial != nil {
		appendEntry("Special District", *record.RateSpecial)
	}

	return breakdown
}
