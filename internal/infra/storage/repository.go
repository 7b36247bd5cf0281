package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tdvu/marketsnap/internal/core/domain"
)

var (
	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")
)

// AssetRepository handles asset storage operations
type AssetRepository interface {
	// SaveBatch upserts multiple assets
	SaveBatch(ctx context.Context, assets []*domain.Asset) error

	// Count returns the number of assets in a collection
	Count(ctx context.Context, collection string) (int, error)

	// SupplyByProto returns the circulating asset count per proto
	SupplyByProto(ctx context.Context, collection string) (map[domain.ProtoID]int64, error)
}

// OrderRepository handles order storage operations
type OrderRepository interface {
	// SaveBatch upserts multiple orders
	SaveBatch(ctx context.Context, orders []*domain.Order) error

	// CountByStatus returns the number of orders with the given status
	CountByStatus(ctx context.Context, collection string, status domain.OrderStatus) (int, error)
}

// TradeRepository handles trade storage operations
type TradeRepository interface {
	// SaveBatch upserts multiple trades
	SaveBatch(ctx context.Context, trades []*domain.Trade) error

	// VolumeSince sums trade prices executed at or after the given time
	VolumeSince(ctx context.Context, collection string, since time.Time) (decimal.Decimal, error)

	// DeleteOlderThan removes trades executed before the threshold
	DeleteOlderThan(ctx context.Context, collection string, threshold time.Time) error
}

// PriceRepository handles per-proto floor price storage
type PriceRepository interface {
	// Save upserts the latest price for a proto
	Save(ctx context.Context, price *domain.ProtoPrice) error

	// Get retrieves the latest price for a proto
	Get(ctx context.Context, collection string, proto domain.ProtoID) (*domain.ProtoPrice, error)

	// GetAll retrieves the latest price of every proto in a collection
	GetAll(ctx context.Context, collection string) ([]*domain.ProtoPrice, error)
}

// SnapshotRepository handles valuation snapshot storage
type SnapshotRepository interface {
	// Save inserts a snapshot
	Save(ctx context.Context, snapshot *domain.Snapshot) error

	// Latest retrieves the most recent snapshot for a collection
	Latest(ctx context.Context, collection string) (*domain.Snapshot, error)

	// List retrieves the most recent snapshots, newest first
	List(ctx context.Context, collection string, limit int) ([]*domain.Snapshot, error)

	// DeleteOlderThan removes snapshots created before the threshold
	DeleteOlderThan(ctx context.Context, collection string, threshold time.Time) error
}
