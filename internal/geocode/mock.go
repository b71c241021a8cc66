package geocode

import (
	"context"
	"encoding/json"
)

// MockResolver returns a fixed result for every coordinate. Useful in tests
// and for running the service without any geographic data wired up.
type MockResolver struct {
	State    string
	County   string
	Locality string
	Err      error

	// Calls counts Resolve invocations.
	Calls int
}

func NewMockResolver(state, county, locality string) *MockResolver {
	return &MockResolver{State: state, County: county, Locality: locality}
}

func (r *MockResolver) ProviderName() string {
	return ProviderMock
}

func (r *MockResolver) Resolve(ctx context.Context, lat, lon float64) (*Result, error) {
	r.Calls++
	if r.Err != nil {
		return nil, r.Err
	}
	return &Result{
		State:       r.State,
		County:      r.County,
		Locality:    r.Locality,
		RawResponse: json.RawMessage(`{"mock": true}`),
		LatRounded:  RoundCoord(lat),
		LonRounded:  RoundCoord(lon),
	}, nil
}
