package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/geotax/api/internal/database"
	"github.com/geotax/api/internal/models"
)

// GeocodeCacheRepository is the durable geocode cache. It satisfies the
// resolver's CacheStore contract.
type GeocodeCacheRepository interface {
	// Get returns the cached entry for the key, or nil, nil on a miss.
	Get(ctx context.Context, cacheKey string) (*models.GeocodeCacheEntry, error)

	// Put stores an entry. Two workers racing on the same key is benign:
	// the first insert wins and the duplicate is dropped.
	Put(ctx context.Context, entry *models.GeocodeCacheEntry) error
}

type geocodeCacheRepository struct {
	db *database.Database
}

// NewGeocodeCacheRepository creates a new instance of GeocodeCacheRepository.
func NewGeocodeCacheRepository(db *database.Database) GeocodeCacheRepository {
	return &geocodeCacheRepository{db: db}
}

func (r *geocodeCacheRepository) Get(ctx context.Context, cacheKey string) (*models.GeocodeCacheEntry, error) {
	query := `
		SELECT id, cache_key, provider, lat_rounded, lon_rounded, state, county, locality, raw_response, created_at
		FROM geocode_cache
		WHERE cache_key = $1`

	var entry models.GeocodeCacheEntry
	err := r.db.Pool.QueryRow(ctx, query, cacheKey).Scan(
		&entry.ID,
		&entry.CacheKey,
		&entry.Provider,
		&entry.LatRounded,
		&entry.LonRounded,
		&entry.State,
		&entry.County,
		&entry.Locality,
		&entry.RawResponse,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query geocode cache for %s: %w", cacheKey, err)
	}
	return &entry, nil
}

func (r *geocodeCacheRepository) Put(ctx context.Context, entry *models.GeocodeCacheEntry) error {
	query := `
		INSERT INTO geocode_cache (cache_key, provider, lat_rounded, lon_rounded, state, county, locality, raw_response)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (cache_key) DO NOTHING`

	rawResponse := entry.RawResponse
	if len(rawResponse) == 0 {
		rawResponse = []byte(`{}`)
	}

	_, err := r.db.Pool.Exec(ctx, query,
		entry.CacheKey,
		entry.Provider,
		entry.LatRounded,
		entry.LonRounded,
		entry.State,
		entry.County,
		entry.Locality,
		rawResponse,
	)
	if err != nil {
		return fmt.Errorf("failed to insert geocode cache entry %s: %w", entry.CacheKey, err)
	}
	return nil
}
