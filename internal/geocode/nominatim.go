package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/geotax/api/internal/logger"
	"github.com/geotax/api/internal/models"
)

// CacheStore is the durable cache consulted before any outbound request.
// Get returns (nil, nil) on a miss. Put must tolerate a concurrent writer
// having already stored the same key.
type CacheStore interface {
	Get(ctx context.Context, cacheKey string) (*models.GeocodeCacheEntry, error)
	Put(ctx context.Context, entry *models.GeocodeCacheEntry) error
}

// nominatimAddress is the subset of the reverse-geocode address payload the
// resolver cares about.
type nominatimAddress struct {
	State   string `json:"state"`
	County  string `json:"county"`
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	Hamlet  string `json:"hamlet"`
}

type nominatimResponse struct {
	Address nominatimAddress `json:"address"`
}

// NominatimResolver reverse-geocodes against a Nominatim-compatible endpoint.
// Every lookup is cache-first; cache misses are throttled to respect the
// usage policy of the public service.
type NominatimResolver struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      CacheStore
	log        *logger.Logger
}

// NominatimOption customizes a NominatimResolver.
type NominatimOption func(*NominatimResolver)

// WithHTTPClient overrides the HTTP client used for outbound requests.
func WithHTTPClient(client *http.Client) NominatimOption {
	return func(r *NominatimResolver) {
		r.httpClient = client
	}
}

// WithRateInterval overrides the minimum spacing between outbound requests.
func WithRateInterval(interval time.Duration) NominatimOption {
	return func(r *NominatimResolver) {
		r.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// NewNominatimResolver creates a resolver against baseURL, identifying itself
// with userAgent. The default throttle spaces requests 1.1s apart.
func NewNominatimResolver(baseURL, userAgent string, cache CacheStore, log *logger.Logger, opts ...NominatimOption) *NominatimResolver {
	r := &NominatimResolver{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(1100*time.Millisecond), 1),
		cache:      cache,
		log:        log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *NominatimResolver) ProviderName() string {
	return ProviderNominatim
}

// Resolve quantizes the coordinates, consults the cache, and only on a miss
// performs a throttled reverse-geocode request. The fresh result is persisted
// before returning so every distinct coordinate bucket costs at most one
// outbound call.
func (r *NominatimResolver) Resolve(ctx context.Context, lat, lon float64) (*Result, error) {
	latRounded := RoundCoord(lat)
	lonRounded := RoundCoord(lon)
	key := CacheKey(ProviderNominatim, latRounded, lonRounded)

	entry, err := r.cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("geocode cache lookup failed: %w", err)
	}
	if entry != nil {
		return resultFromCacheEntry(entry), nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait aborted: %w", err)
	}

	body, err := r.fetch(ctx, latRounded, lonRounded)
	if err != nil {
		return nil, err
	}

	var parsed nominatimResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse reverse geocode response: %w", err)
	}

	result := &Result{
		State:       parsed.Address.State,
		Locality:    firstNonEmpty(parsed.Address.City, parsed.Address.Town, parsed.Address.Village, parsed.Address.Hamlet),
		RawResponse: body,
		LatRounded:  latRounded,
		LonRounded:  lonRounded,
	}
	result.County = NormalizeCounty(parsed.Address.County, result.Locality)
	if result.State == "" {
		result.State = "UNKNOWN"
	}

	cacheEntry := &models.GeocodeCacheEntry{
		CacheKey:    key,
		Provider:    ProviderNominatim,
		LatRounded:  latRounded,
		LonRounded:  lonRounded,
		State:       result.State,
		County:      result.County,
		RawResponse: body,
	}
	if result.Locality != "" {
		loc := result.Locality
		cacheEntry.Locality = &loc
	}
	if err := r.cache.Put(ctx, cacheEntry); err != nil {
		// A failed cache write is not fatal for the caller; the next lookup
		// just pays for another request.
		r.log.Warn("Failed to persist geocode cache entry", map[string]interface{}{
			"cache_key": key,
			"error":     err.Error(),
		})
	}

	return result, nil
}

func (r *NominatimResolver) fetch(ctx context.Context, latRounded, lonRounded decimal.Decimal) ([]byte, error) {
	params := url.Values{}
	params.Set("lat", latRounded.String())
	params.Set("lon", lonRounded.String())
	params.Set("format", "json")
	params.Set("zoom", "18")
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build reverse geocode request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reverse geocode returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read reverse geocode response: %w", err)
	}
	return body, nil
}

func resultFromCacheEntry(entry *models.GeocodeCacheEntry) *Result {
	result := &Result{
		State:       entry.State,
		County:      entry.County,
		RawResponse: entry.RawResponse,
		LatRounded:  entry.LatRounded,
		LonRounded:  entry.LonRounded,
	}
	if entry.Locality != nil {
		result.Locality = *entry.Locality
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
