package orders

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/richxcame/engraving-commerce/pkg/database"
)

// Reader is the read access other packages need
type Reader interface {
	GetOrder(ctx context.Context, orderID string) (*Order, error)
}

// Repository reads orders from the storefront read model
type Repository struct {
	db database.Pool
}

// NewRepository creates a new orders repository
func NewRepository(db database.Pool) *Repository {
	return &Repository{db: db}
}

// GetOrder loads an order with its line items. Returns nil when not found.
func (r *Repository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	query := `
		SELECT id, cart_id, customer_id, email, currency_code,
			   customer_first_name, customer_last_name, created_at
		FROM orders
		WHERE id = $1
	`

	o := &Order{}
	err := r.db.QueryRow(ctx, query, orderID).Scan(
		&o.ID, &o.CartID, &o.CustomerID, &o.Email, &o.CurrencyCode,
		&o.CustomerFirstName, &o.CustomerLastName, &o.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := r.getLineItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

func (r *Repository) getLineItems(ctx context.Context, orderID string) ([]LineItem, error) {
	query := `
		SELECT id, order_id, title, quantity, unit_price, total,
			   metadata, product_metadata
		FROM order_line_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var li LineItem
		if err := rows.Scan(
			&li.ID, &li.OrderID, &li.Title, &li.Quantity, &li.UnitPrice, &li.Total,
			&li.Metadata, &li.ProductMetadata,
		); err != nil {
			return nil, err
		}
		items = append(items, li)
	}

	return items, rows.Err()
}
