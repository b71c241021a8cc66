package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geotax/api/internal/config"
)

// Test configuration for local PostgreSQL
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

func TestNewPostgresPool_Success(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	cfg := getTestConfig()

	db, err := NewPostgresPool(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	defer db.Close()

	if db.Pool == nil {
		t.Error("Expected Pool to be initialized")
	}

	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	stats := db.Stats()
	if stats == nil {
		t.Error("Expected pool stats to be available")
	}
}

func TestNewPostgresPool_InvalidCredentials(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := getTestConfig()
	cfg.Password = "definitely-wrong"

	db, err := NewPostgresPool(ctx, cfg)
	if err == nil {
		db.Close()
		t.Error("Expected error with invalid credentials")
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := NewPostgresPool(ctx, getTestConfig())
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	defer db.Close()

	// Applying the schema twice must not fail.
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("First EnsureSchema failed: %v", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("Second EnsureSchema failed: %v", err)
	}
}
