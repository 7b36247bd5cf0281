package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tdvu/marketsnap/internal/core/domain"
	"github.com/tdvu/marketsnap/internal/infra/storage"
)

// PriceRepo implements storage.PriceRepository using PostgreSQL.
type PriceRepo struct {
	db *DB
}

// NewPriceRepo creates a new PostgreSQL price repository.
func NewPriceRepo(db *DB) *PriceRepo {
	return &PriceRepo{db: db}
}

type priceRow struct {
	Collection string          `db:"collection"`
	Proto      int64           `db:"proto"`
	FloorPrice decimal.Decimal `db:"floor_price"`
	Currency   string          `db:"currency"`
	OrderCount int             `db:"order_count"`
	FetchedAt  time.Time       `db:"fetched_at"`
}

func (r priceRow) toDomain() *domain.ProtoPrice {
	return &domain.ProtoPrice{
		Proto:      domain.ProtoID(r.Proto),
		Collection: r.Collection,
		FloorPrice: r.FloorPrice,
		Currency:   r.Currency,
		OrderCount: r.OrderCount,
		FetchedAt:  r.FetchedAt,
	}
}

// Save upserts the latest price for a proto.
func (r *PriceRepo) Save(ctx context.Context, price *domain.ProtoPrice) error {
	row := priceRow{
		Collection: price.Collection,
		Proto:      int64(price.Proto),
		FloorPrice: price.FloorPrice,
		Currency:   price.Currency,
		OrderCount: price.OrderCount,
		FetchedAt:  price.FetchedAt,
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO proto_prices (collection, proto, floor_price, currency, order_count, fetched_at)
		VALUES (:collection, :proto, :floor_price, :currency, :order_count, :fetched_at)
		ON CONFLICT (collection, proto) DO UPDATE SET
			floor_price = EXCLUDED.floor_price,
			currency    = EXCLUDED.currency,
			order_count = EXCLUDED.order_count,
			fetched_at  = EXCLUDED.fetched_at`, row)
	if err != nil {
		return fmt.Errorf("failed to save price for proto %d: %w", price.Proto, err)
	}
	return nil
}

// Get retrieves the latest price for a proto.
func (r *PriceRepo) Get(
	ctx context.Context,
	collection string,
	proto domain.ProtoID,
) (*domain.ProtoPrice, error) {
	var row priceRow
	err := r.db.GetContext(ctx, &row,
		`SELECT collection, proto, floor_price, currency, order_count, fetched_at
		 FROM proto_prices WHERE collection = $1 AND proto = $2`,
		collection, int64(proto))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get price: %w", err)
	}
	return row.toDomain(), nil
}

// GetAll retrieves the latest price of every proto in a collection.
func (r *PriceRepo) GetAll(ctx context.Context, collection string) ([]*domain.ProtoPrice, error) {
	var rows []priceRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT collection, proto, floor_price, currency, order_count, fetched_at
		 FROM proto_prices WHERE collection = $1 ORDER BY proto`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}

	prices := make([]*domain.ProtoPrice, 0, len(rows))
	for _, row := range rows {
		prices = append(prices, row.toDomain())
	}
	return prices, nil
}
