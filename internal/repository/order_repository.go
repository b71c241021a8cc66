package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/geotax/api/internal/database"
	"github.com/geotax/api/internal/models"
)

// OrderPageSize is the fixed page size for order listings.
const OrderPageSize = 50

// ErrInvalidOrdering marks an ordering token outside the accepted set.
var ErrInvalidOrdering = errors.New("unsupported ordering")

// orderings maps accepted ordering tokens to ORDER BY clauses. Anything not
// in this map is rejected before reaching SQL.
var orderings = map[string]string{
	"id":          "id ASC",
	"-id":         "id DESC",
	"created_at":  "created_at ASC, id ASC",
	"-created_at": "created_at DESC, id DESC",
}

// OrderPage is one page of an order listing with pagination metadata.
type OrderPage struct {
	Count    int64          `json:"count"`
	Next     *int           `json:"next"`
	Previous *int           `json:"previous"`
	Results  []models.Order `json:"results"`
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Insert writes a fully computed order. For import rows carrying a
	// (job, row) identity the write is idempotent: a duplicate insert is
	// silently dropped and reported via the returned flag.
	Insert(ctx context.Context, order *models.Order) (bool, error)

	// List returns one page of orders. Unknown ordering tokens are an error;
	// an empty token defaults to newest first. Pages are 1-based.
	List(ctx context.Context, ordering string, page int) (*OrderPage, error)

	// DeleteAll removes every order.
	DeleteAll(ctx context.Context) error
}

type orderRepository struct {
	db *database.Database
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *database.Database) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, lat, lon, subtotal, order_timestamp, geo_state, geo_county, geo_locality, geo_source,
	geo_raw_response, composite_rate, tax_amount, total_amount, jurisdictions, breakdown,
	import_job_id, import_row_index, created_at`

func (r *orderRepository) Insert(ctx context.Context, order *models.Order) (bool, error) {
	jurisdictions, err := json.Marshal(order.Jurisdictions)
	if err != nil {
		return false, fmt.Errorf("failed to encode jurisdictions: %w", err)
	}
	breakdown, err := json.Marshal(order.Breakdown)
	if err != nil {
		return false, fmt.Errorf("failed to encode breakdown: %w", err)
	}

	rawResponse := order.GeoRawResponse
	if len(rawResponse) == 0 {
		rawResponse = json.RawMessage(`{}`)
	}

	query := `
		INSERT INTO orders (lat, lon, subtotal, order_timestamp, geo_state, geo_county, geo_locality, geo_source,
			geo_raw_response, composite_rate, tax_amount, total_amount, jurisdictions, breakdown,
			import_job_id, import_row_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT DO NOTHING
		RETURNING id, created_at`

	err = r.db.Pool.QueryRow(ctx, query,
		order.Lat,
		order.Lon,
		order.Subtotal,
		order.OrderTimestamp,
		order.GeoState,
		order.GeoCounty,
		order.GeoLocality,
		order.GeoSource,
		rawResponse,
		order.CompositeRate,
		order.TaxAmount,
		order.TotalAmount,
		jurisdictions,
		breakdown,
		order.ImportJobID,
		order.ImportRowIndex,
	).Scan(&order.ID, &order.CreatedAt)

	if err != nil {
		// ON CONFLICT DO NOTHING yields no row when the (job, row) identity
		// already exists; a replayed import task lands here.
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert order: %w", err)
	}
	return true, nil
}

func (r *orderRepository) List(ctx context.Context, ordering string, page int) (*OrderPage, error) {
	if ordering == "" {
		ordering = "-created_at"
	}
	orderBy, ok := orderings[ordering]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrdering, ordering)
	}
	if page < 1 {
		page = 1
	}

	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM orders ORDER BY %s LIMIT $1 OFFSET $2`, orderColumns, orderBy)
	rows, err := r.db.Pool.Query(ctx, query, OrderPageSize, (page-1)*OrderPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	results := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	pageResult := &OrderPage{Count: count, Results: results}
	if int64(page)*OrderPageSize < count {
		next := page + 1
		pageResult.Next = &next
	}
	if page > 1 {
		prev := page - 1
		pageResult.Previous = &prev
	}
	return pageResult, nil
}

func (r *orderRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM orders`); err != nil {
		return fmt.Errorf("failed to clear orders: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	var jurisdictions, breakdown []byte

	err := row.Scan(
		&order.ID,
		&order.Lat,
		&order.Lon,
		&order.Subtotal,
		&order.OrderTimestamp,
		&order.GeoState,
		&order.GeoCounty,
		&order.GeoLocality,
		&order.GeoSource,
		&order.GeoRawResponse,
		&order.CompositeRate,
		&order.TaxAmount,
		&order.TotalAmount,
		&jurisdictions,
		&breakdown,
		&order.ImportJobID,
		&order.ImportRowIndex,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan order row: %w", err)
	}

	if err := json.Unmarshal(jurisdictions, &order.Jurisdictions); err != nil {
		return nil, fmt.Errorf("failed to decode jurisdictions for order %d: %w", order.ID, err)
	}
	if err := json.Unmarshal(breakdown, &order.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to decode breakdown for order %d: %w", order.ID, err)
	}
	return &order, nil
}
