package database

import (
	"context"
	"fmt"
)

// schemaStatements creates the tables the service owns. Statements are
// idempotent so every binary (server, worker, seed) can run them at startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tax_rates (
		id BIGSERIAL PRIMARY KEY,
		state VARCHAR(50) NOT NULL,
		county VARCHAR(100) NOT NULL DEFAULT '',
		locality VARCHAR(100),
		rate_state NUMERIC(6,4) NOT NULL,
		rate_county NUMERIC(6,4) NOT NULL,
		rate_locality NUMERIC(6,4) NOT NULL DEFAULT 0,
		rate_special NUMERIC(6,4),
		valid_from TIMESTAMPTZ NOT NULL,
		valid_to TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tax_rates_lookup
		ON tax_rates (state, county, locality, valid_from, valid_to)`,

	`CREATE TABLE IF NOT EXISTS geocode_cache (
		id BIGSERIAL PRIMARY KEY,
		cache_key VARCHAR(255) NOT NULL UNIQUE,
		provider VARCHAR(50) NOT NULL,
		lat_rounded NUMERIC(9,4) NOT NULL,
		lon_rounded NUMERIC(9,4) NOT NULL,
		state VARCHAR(100) NOT NULL,
		county VARCHAR(100) NOT NULL,
		locality VARCHAR(100),
		raw_response JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS orders (
		id BIGSERIAL PRIMARY KEY,
		lat NUMERIC(9,6) NOT NULL,
		lon NUMERIC(9,6) NOT NULL,
		subtotal NUMERIC(12,2) NOT NULL,
		order_timestamp TIMESTAMPTZ NOT NULL,
		geo_state VARCHAR(100) NOT NULL,
		geo_county VARCHAR(100) NOT NULL,
		geo_locality VARCHAR(100),
		geo_source VARCHAR(50) NOT NULL,
		geo_raw_response JSONB NOT NULL,
		composite_rate NUMERIC(6,4) NOT NULL,
		tax_amount NUMERIC(12,2) NOT NULL,
		total_amount NUMERIC(12,2) NOT NULL,
		jurisdictions JSONB NOT NULL,
		breakdown JSONB NOT NULL,
		import_job_id BIGINT,
		import_row_index INT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_order_timestamp ON orders (order_timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at)`,
	// Replay dedup: a redelivered import task can never double-insert a row.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_import_row
		ON orders (import_job_id, import_row_index)
		WHERE import_job_id IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS import_jobs (
		id BIGSERIAL PRIMARY KEY,
		status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
		total_rows INT NOT NULL DEFAULT 0,
		processed_rows INT NOT NULL DEFAULT 0,
		success_rows INT NOT NULL DEFAULT 0,
		failed_rows INT NOT NULL DEFAULT 0,
		error_report JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ
	)`,
}

// EnsureSchema applies the service schema to the connected database.
func (db *Database) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
