package repository

import (
	"context"
	"os"
	"testing"

	"github.com/geotax/api/internal/config"
	"github.com/geotax/api/internal/database"
)

// getTestConfig returns database configuration for integration tests.
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "geotax_test"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:  2,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupTestDB connects, applies the schema and truncates all service tables
// so each test starts from a clean slate.
func setupTestDB(t *testing.T) *database.Database {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	t.Helper()

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, getTestConfig())
	if err != nil {
		t.Fatalf("Failed to create database connection: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	for _, table := range []string{"orders", "tax_rates", "geocode_cache", "import_jobs"} {
		if _, err := db.Pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("Failed to truncate %s: %v", table, err)
		}
	}
	return db
}
