package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Geocode  GeocodeConfig
	Import   ImportConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// RedisConfig holds the connection settings for the task queue broker.
type RedisConfig struct {
	URL      string
	QueueKey string
}

// GeocodeConfig selects and configures the geocode provider.
// Provider is one of "polygon", "nearest", "nominatim".
type GeocodeConfig struct {
	Provider     string
	GeoJSONPath  string
	NominatimURL string
	UserAgent    string
}

// ImportConfig holds CSV import worker settings.
type ImportConfig struct {
	BatchSize int
	Workers   int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "geotax")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("IMPORT_QUEUE_KEY", "geotax:import:queue")
	v.SetDefault("GEOCODE_PROVIDER", "polygon")
	v.SetDefault("GEOJSON_PATH", "data/nys_counties.geojson")
	v.SetDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org/reverse")
	v.SetDefault("NOMINATIM_USER_AGENT", "geotax/1.0")
	v.SetDefault("IMPORT_BATCH_SIZE", 500)
	v.SetDefault("IMPORT_WORKERS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")

	// Bind environment variables
	v.AutomaticEnv()

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		Redis: RedisConfig{
			URL:      v.GetString("REDIS_URL"),
			QueueKey: v.GetString("IMPORT_QUEUE_KEY"),
		},
		Geocode: GeocodeConfig{
			Provider:     v.GetString("GEOCODE_PROVIDER"),
			GeoJSONPath:  v.GetString("GEOJSON_PATH"),
			NominatimURL: v.GetString("NOMINATIM_URL"),
			UserAgent:    v.GetString("NOMINATIM_USER_AGENT"),
		},
		Import: ImportConfig{
			BatchSize: v.GetInt("IMPORT_BATCH_SIZE"),
			Workers:   v.GetInt("IMPORT_WORKERS"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	// Validate broker config
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.Redis.QueueKey == "" {
		return fmt.Errorf("IMPORT_QUEUE_KEY is required")
	}

	// Validate geocode config
	switch c.Geocode.Provider {
	case "polygon", "nearest", "nominatim":
	default:
		return fmt.Errorf("GEOCODE_PROVIDER must be one of polygon, nearest, nominatim")
	}
	if c.Geocode.Provider == "polygon" && c.Geocode.GeoJSONPath == "" {
		return fmt.Errorf("GEOJSON_PATH is required for the polygon provider")
	}
	if c.Geocode.Provider == "nominatim" {
		if c.Geocode.NominatimURL == "" {
			return fmt.Errorf("NOMINATIM_URL is required for the nominatim provider")
		}
		if c.Geocode.UserAgent == "" {
			return fmt.Errorf("NOMINATIM_USER_AGENT is required for the nominatim provider")
		}
	}

	// Validate import config
	if c.Import.BatchSize < 1 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be at least 1")
	}
	if c.Import.Workers < 1 {
		return fmt.Errorf("IMPORT_WORKERS must be at least 1")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
