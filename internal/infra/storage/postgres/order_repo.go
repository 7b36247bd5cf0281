package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tdvu/marketsnap/internal/core/domain"
)

// OrderRepo implements storage.OrderRepository using PostgreSQL.
type OrderRepo struct {
	db *DB
}

// NewOrderRepo creates a new PostgreSQL order repository.
func NewOrderRepo(db *DB) *OrderRepo {
	return &OrderRepo{db: db}
}

type orderRow struct {
	OrderID    int64           `db:"order_id"`
	Collection string          `db:"collection"`
	Proto      int64           `db:"proto"`
	TokenID    string          `db:"token_id"`
	Status     string          `db:"status"`
	Price      decimal.Decimal `db:"price"`
	Currency   string          `db:"currency"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

const upsertOrderQuery = `
	INSERT INTO orders (order_id, collection, proto, token_id, status, price, currency, created_at, updated_at)
	VALUES (:order_id, :collection, :proto, :token_id, :status, :price, :currency, :created_at, :updated_at)
	ON CONFLICT (order_id) DO UPDATE SET
		status     = EXCLUDED.status,
		price      = EXCLUDED.price,
		updated_at = EXCLUDED.updated_at`

// SaveBatch upserts multiple orders in one transaction.
func (r *OrderRepo) SaveBatch(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, o := range orders {
		row := orderRow{
			OrderID:    o.ID,
			Collection: o.Collection,
			Proto:      int64(o.Proto),
			TokenID:    o.TokenID,
			Status:     string(o.Status),
			Price:      o.Price,
			Currency:   o.Currency,
			CreatedAt:  o.CreatedAt,
			UpdatedAt:  o.UpdatedAt,
		}
		if _, err := tx.NamedExecContext(ctx, upsertOrderQuery, row); err != nil {
			return fmt.Errorf("failed to save order %d: %w", o.ID, err)
		}
	}

	return tx.Commit()
}

// CountByStatus returns the number of orders with the given status.
func (r *OrderRepo) CountByStatus(
	ctx context.Context,
	collection string,
	status domain.OrderStatus,
) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM orders WHERE collection = $1 AND status = $2`,
		collection, string(status))
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}
