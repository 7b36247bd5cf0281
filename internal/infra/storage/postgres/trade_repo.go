package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tdvu/marketsnap/internal/core/domain"
)

// TradeRepo implements storage.TradeRepository using PostgreSQL.
type TradeRepo struct {
	db *DB
}

// NewTradeRepo creates a new PostgreSQL trade repository.
func NewTradeRepo(db *DB) *TradeRepo {
	return &TradeRepo{db: db}
}

type tradeRow struct {
	TradeID    int64           `db:"trade_id"`
	Collection string          `db:"collection"`
	Proto      int64           `db:"proto"`
	TokenID    string          `db:"token_id"`
	Price      decimal.Decimal `db:"price"`
	Currency   string          `db:"currency"`
	ExecutedAt time.Time       `db:"executed_at"`
}

const upsertTradeQuery = `
	INSERT INTO trades (trade_id, collection, proto, token_id, price, currency, executed_at)
	VALUES (:trade_id, :collection, :proto, :token_id, :price, :currency, :executed_at)
	ON CONFLICT (trade_id) DO NOTHING`

// SaveBatch inserts multiple trades, skipping ones already recorded.
func (r *TradeRepo) SaveBatch(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range trades {
		row := tradeRow{
			TradeID:    t.ID,
			Collection: t.Collection,
			Proto:      int64(t.Proto),
			TokenID:    t.TokenID,
			Price:      t.Price,
			Currency:   t.Currency,
			ExecutedAt: t.ExecutedAt,
		}
		if _, err := tx.NamedExecContext(ctx, upsertTradeQuery, row); err != nil {
			return fmt.Errorf("failed to save trade %d: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// VolumeSince sums trade prices executed at or after the given time.
func (r *TradeRepo) VolumeSince(
	ctx context.Context,
	collection string,
	since time.Time,
) (decimal.Decimal, error) {
	var volume sql.NullString
	err := r.db.GetContext(ctx, &volume,
		`SELECT SUM(price)::TEXT FROM trades WHERE collection = $1 AND executed_at >= $2`,
		collection, since)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum trade volume: %w", err)
	}
	if !volume.Valid {
		return decimal.Zero, nil
	}

	sum, err := decimal.NewFromString(volume.String)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid volume %q: %w", volume.String, err)
	}
	return sum, nil
}

// DeleteOlderThan removes trades executed before the threshold.
func (r *TradeRepo) DeleteOlderThan(
	ctx context.Context,
	collection string,
	threshold time.Time,
) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM trades WHERE collection = $1 AND executed_at < $2`,
		collection, threshold)
	if err != nil {
		return fmt.Errorf("failed to delete trades: %w", err)
	}
	return nil
}
