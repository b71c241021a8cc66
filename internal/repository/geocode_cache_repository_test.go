package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/geotax/api/internal/models"
)

func testCacheEntry(key string) *models.GeocodeCacheEntry {
	locality := "Brooklyn"
	return &models.GeocodeCacheEntry{
		CacheKey:    key,
		Provider:    "nominatim",
		LatRounded:  decimal.RequireFromString("40.6782"),
		LonRounded:  decimal.RequireFromString("-73.9442"),
		State:       "New York",
		County:      "Kings",
		Locality:    &locality,
		RawResponse: json.RawMessage(`{"address": {"city": "Brooklyn"}}`),
	}
}

func TestGeocodeCache_PutGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGeocodeCacheRepository(db)
	ctx := context.Background()

	key := "nominatim_40.6782_-73.9442"
	if err := repo.Put(ctx, testCacheEntry(key)); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	entry, err := repo.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if entry == nil {
		t.Fatal("Expected cache hit, got nil")
	}
	if entry.State != "New York" || entry.County != "Kings" {
		t.Errorf("Unexpected entry contents: %+v", entry)
	}
	if entry.Locality == nil || *entry.Locality != "Brooklyn" {
		t.Errorf("Expected locality Brooklyn, got %v", entry.Locality)
	}
	if entry.LatRounded.StringFixed(4) != "40.6782" {
		t.Errorf("Expected lat 40.6782, got %s", entry.LatRounded.StringFixed(4))
	}
}

func TestGeocodeCache_Miss(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGeocodeCacheRepository(db)

	entry, err := repo.Get(context.Background(), "nominatim_0.0000_0.0000")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if entry != nil {
		t.Errorf("Expected miss, got %+v", entry)
	}
}

func TestGeocodeCache_DuplicatePutIsBenign(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGeocodeCacheRepository(db)
	ctx := context.Background()

	key := "polygon_40.7128_-74.0060"
	if err := repo.Put(ctx, testCacheEntry(key)); err != nil {
		t.Fatalf("First Put returned error: %v", err)
	}

	// A racing worker storing the same key must not surface an error, and
	// the first write wins.
	second := testCacheEntry(key)
	second.County = "Queens"
	if err := repo.Put(ctx, second); err != nil {
		t.Fatalf("Duplicate Put returned error: %v", err)
	}

	entry, err := repo.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if entry == nil || entry.County != "Kings" {
		t.Errorf("Expected first write to win, got %+v", entry)
	}
}
