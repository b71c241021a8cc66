package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/geotax/api/internal/database"
	"github.com/geotax/api/internal/models"
)

// RateRepository defines the interface for tax rate data access operations.
type RateRepository interface {
	// FetchRate resolves the rate record in effect at the given instant for a
	// jurisdictional triple, walking the resolution cascade from most to
	// least specific. Returns nil, nil when no tier yields a record (no
	// nexus). Returns error only for actual database failures.
	FetchRate(ctx context.Context, state, county, locality string, at time.Time) (*models.RateRecord, error)

	// Insert stores a single rate record.
	Insert(ctx context.Context, record *models.RateRecord) error

	// ReplaceAll atomically deletes every rate record and inserts the given
	// set. Used by seeding; the table is never left partially loaded.
	ReplaceAll(ctx context.Context, records []models.RateRecord) error
}

type rateRepository struct {
	db *database.Database
}

// NewRateRepository creates a new instance of RateRepository.
func NewRateRepository(db *database.Database) RateRepository {
	return &rateRepository{db: db}
}

const rateColumns = `id, state, county, locality, rate_state, rate_county, rate_locality, rate_special, valid_from, valid_to`

// temporalWindow qualifies records whose validity window contains the instant.
const temporalWindow = `valid_from <= $%d AND (valid_to IS NULL OR valid_to >= $%d)`

// FetchRate walks the cascade; the first tier producing a candidate wins, and
// within a tier the record with the greatest valid_from is chosen. All string
// matching is case-insensitive.
func (r *rateRepository) FetchRate(ctx context.Context, state, county, locality string, at time.Time) (*models.RateRecord, error) {
	type tier struct {
		where string
		args  []interface{}
	}

	var tiers []tier

	// 1. Exact state + county + locality, only when a locality was resolved.
	if locality != "" {
		tiers = append(tiers, tier{
			where: `LOWER(state) = LOWER($1) AND LOWER(county) = LOWER($2) AND LOWER(COALESCE(locality, '')) = LOWER($3)`,
			args:  []interface{}{state, county, locality},
		})
	}

	// 2. State + county with no locality on the record.
	tiers = append(tiers, tier{
		where: `LOWER(state) = LOWER($1) AND LOWER(county) = LOWER($2) AND COALESCE(locality, '') = ''`,
		args:  []interface{}{state, county},
	})

	// 3. Fuzzy county: suffix-stripped substring match, only when a county
	// was resolved at all.
	if needle := fuzzyCountyNeedle(county); needle != "" {
		tiers = append(tiers, tier{
			where: `LOWER(state) = LOWER($1) AND county ILIKE '%' || $2 || '%'`,
			args:  []interface{}{state, escapeLike(needle)},
		})
	}

	// 4. Generic state fallback: the explicit empty-county record.
	tiers = append(tiers, tier{
		where: `LOWER(state) = LOWER($1) AND county = ''`,
		args:  []interface{}{state},
	})

	// 5. Any record for the state.
	tiers = append(tiers, tier{
		where: `LOWER(state) = LOWER($1)`,
		args:  []interface{}{state},
	})

	for _, t := range tiers {
		record, err := r.queryTier(ctx, t.where, t.args, at)
		if err != nil {
			return nil, err
		}
		if record != nil {
			return record, nil
		}
	}

	return nil, nil
}

func (r *rateRepository) queryTier(ctx context.Context, where string, args []interface{}, at time.Time) (*models.RateRecord, error) {
	atIndex := len(args) + 1
	query := fmt.Sprintf(
		`SELECT %s FROM tax_rates WHERE %s AND `+temporalWindow+` ORDER BY valid_from DESC LIMIT 1`,
		rateColumns, where, atIndex, atIndex,
	)
	args = append(args, at)

	var record models.RateRecord
	err := r.db.Pool.QueryRow(ctx, query, args...).Scan(
		&record.ID,
		&record.State,
		&record.County,
		&record.Locality,
		&record.RateState,
		&record.RateCounty,
		&record.RateLocality,
		&record.RateSpecial,
		&record.ValidFrom,
		&record.ValidTo,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query tax rate: %w", err)
	}
	return &record, nil
}

// fuzzyCountyNeedle strips the " County" and " City" suffixes used by
// geocoders so "Kings County" still matches a record stored as "Kings".
// Stacked suffixes ("Kings County City") are stripped repeatedly.
func fuzzyCountyNeedle(county string) string {
	needle := strings.TrimSpace(county)
	for stripped := true; stripped; {
		stripped = false
		for _, suffix := range []string{" County", " City"} {
			if len(needle) > len(suffix) && strings.EqualFold(needle[len(needle)-len(suffix):], suffix) {
				needle = strings.TrimSpace(needle[:len(needle)-len(suffix)])
				stripped = true
			}
		}
	}
	return needle
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE metacharacters so a needle containing % or _
// matches those characters literally instead of widening the pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

const insertRateQuery = `
	INSERT INTO tax_rates (state, county, locality, rate_state, rate_county, rate_locality, rate_special, valid_from, valid_to)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`

func (r *rateRepository) Insert(ctx context.Context, record *models.RateRecord) error {
	err := r.db.Pool.QueryRow(ctx, insertRateQuery,
		record.State,
		record.County,
		record.Locality,
		record.RateState,
		record.RateCounty,
		record.RateLocality,
		record.RateSpecial,
		record.ValidFrom,
		record.ValidTo,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to insert tax rate: %w", err)
	}
	return nil
}

func (r *rateRepository) ReplaceAll(ctx context.Context, records []models.RateRecord) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin rate reload transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM tax_rates`); err != nil {
		return fmt.Errorf("failed to clear tax rates: %w", err)
	}

	for i := range records {
		record := &records[i]
		err := tx.QueryRow(ctx, insertRateQuery,
			record.State,
			record.County,
			record.Locality,
			record.RateState,
			record.RateCounty,
			record.RateLocality,
			record.RateSpecial,
			record.ValidFrom,
			record.ValidTo,
		).Scan(&record.ID)
		if err != nil {
			return fmt.Errorf("failed to insert tax rate for %s/%s: %w", record.State, record.County, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rate reload: %w", err)
	}
	return nil
}
