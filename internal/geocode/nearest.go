package geocode

import (
	"context"
	"encoding/json"
	"math"
)

// place is one labeled point in the embedded gazetteer. County is left empty
// for the NYC boroughs so the borough fallback table supplies it.
type place struct {
	Name   string
	State  string
	County string
	Lat    float64
	Lon    float64
}

// nearestPlaces is a small embedded gazetteer of population centers. Nearest
// resolution is approximate by construction; the set only needs enough
// coverage to label a point with a plausible jurisdiction.
var nearestPlaces = []place{
	{Name: "Manhattan", State: "New York", Lat: 40.7831, Lon: -73.9712},
	{Name: "Brooklyn", State: "New York", Lat: 40.6782, Lon: -73.9442},
	{Name: "Queens", State: "New York", Lat: 40.7282, Lon: -73.7949},
	{Name: "Bronx", State: "New York", Lat: 40.8448, Lon: -73.8648},
	{Name: "Staten Island", State: "New York", Lat: 40.5795, Lon: -74.1502},
	{Name: "Buffalo", State: "New York", County: "Erie", Lat: 42.8864, Lon: -78.8784},
	{Name: "Rochester", State: "New York", County: "Monroe", Lat: 43.1566, Lon: -77.6088},
	{Name: "Syracuse", State: "New York", County: "Onondaga", Lat: 43.0481, Lon: -76.1474},
	{Name: "Albany", State: "New York", County: "Albany", Lat: 42.6526, Lon: -73.7562},
	{Name: "Yonkers", State: "New York", County: "Westchester", Lat: 40.9312, Lon: -73.8988},
	{Name: "White Plains", State: "New York", County: "Westchester", Lat: 41.034, Lon: -73.7629},
	{Name: "New Rochelle", State: "New York", County: "Westchester", Lat: 40.9115, Lon: -73.7824},
	{Name: "Utica", State: "New York", County: "Oneida", Lat: 43.1009, Lon: -75.2327},
	{Name: "Binghamton", State: "New York", County: "Broome", Lat: 42.0987, Lon: -75.918},
	{Name: "Ithaca", State: "New York", County: "Tompkins", Lat: 42.4439, Lon: -76.5019},
	{Name: "Kingston", State: "New York", County: "Ulster", Lat: 41.9271, Lon: -73.9974},
	{Name: "Poughkeepsie", State: "New York", County: "Dutchess", Lat: 41.7004, Lon: -73.9209},
	{Name: "Watertown", State: "New York", County: "Jefferson", Lat: 43.9748, Lon: -75.9108},
	{Name: "Plattsburgh", State: "New York", County: "Clinton", Lat: 44.6995, Lon: -73.4529},
	{Name: "Elmira", State: "New York", County: "Chemung", Lat: 42.0898, Lon: -76.8077},
	{Name: "Niagara Falls", State: "New York", County: "Niagara", Lat: 43.0962, Lon: -79.0377},
	{Name: "Saratoga Springs", State: "New York", County: "Saratoga", Lat: 43.0831, Lon: -73.7846},
	{Name: "Hempstead", State: "New York", County: "Nassau", Lat: 40.7062, Lon: -73.6187},
	{Name: "Brentwood", State: "New York", County: "Suffolk", Lat: 40.7812, Lon: -73.2462},
	{Name: "Riverhead", State: "New York", County: "Suffolk", Lat: 40.917, Lon: -72.6621},
	{Name: "Monticello", State: "New York", County: "Sullivan", Lat: 41.6556, Lon: -74.6893},
	{Name: "Newark", State: "New Jersey", County: "Essex", Lat: 40.7357, Lon: -74.1724},
	{Name: "Jersey City", State: "New Jersey", County: "Hudson", Lat: 40.7178, Lon: -74.0431},
	{Name: "Stamford", State: "Connecticut", County: "Fairfield", Lat: 41.0534, Lon: -73.5387},
	{Name: "Scranton", State: "Pennsylvania", County: "Lackawanna", Lat: 41.4089, Lon: -75.6624},
	{Name: "Burlington", State: "Vermont", County: "Chittenden", Lat: 44.4759, Lon: -73.2121},
	{Name: "Pittsfield", State: "Massachusetts", County: "Berkshire", Lat: 42.4501, Lon: -73.2454},
}

const earthRadiusKM = 6371.0

// haversineKM returns the great-circle distance in kilometers between two
// points given in degrees.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// NearestResolver labels a coordinate with the jurisdictions of the closest
// gazetteer entry. Entirely in-process: no network, no external files.
type NearestResolver struct {
	places []place
}

func NewNearestResolver() *NearestResolver {
	return &NearestResolver{places: nearestPlaces}
}

func (r *NearestResolver) ProviderName() string {
	return ProviderNearest
}

// Resolve finds the nearest place by haversine distance. County comes from
// the matched record; boroughs carry no county, so the borough fallback
// derives one from the place name.
func (r *NearestResolver) Resolve(ctx context.Context, lat, lon float64) (*Result, error) {
	best := -1
	bestDist := math.MaxFloat64
	for i := range r.places {
		d := haversineKM(lat, lon, r.places[i].Lat, r.places[i].Lon)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}

	result := &Result{
		LatRounded: RoundCoord(lat),
		LonRounded: RoundCoord(lon),
	}
	if best < 0 {
		return result, nil
	}

	p := r.places[best]
	result.State = p.State
	result.County = NormalizeCounty(p.County, p.Name)
	result.Locality = p.Name

	raw, err := json.Marshal(map[string]interface{}{
		"match": map[string]interface{}{
			"name":   p.Name,
			"state":  p.State,
			"county": p.County,
			"lat":    p.Lat,
			"lon":    p.Lon,
		},
		"distance_km": bestDist,
	})
	if err == nil {
		result.RawResponse = raw
	}

	return result, nil
}
