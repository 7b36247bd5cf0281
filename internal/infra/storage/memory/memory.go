// Package memory provides in-memory repository implementations, used for
// tests and for running without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tdvu/marketsnap/internal/core/domain"
	"github.com/tdvu/marketsnap/internal/infra/storage"
)

// Storage holds all in-memory data guarded by a single lock.
type Storage struct {
	mu        sync.RWMutex
	assets    map[string]*domain.Asset // key: collection + "/" + tokenID
	orders    map[int64]*domain.Order
	trades    map[int64]*domain.Trade
	prices    map[string]*domain.ProtoPrice // key: collection + "/" + proto
	snapshots []*domain.Snapshot
}

// NewStorage creates empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{
		assets: make(map[string]*domain.Asset),
		orders: make(map[int64]*domain.Order),
		trades: make(map[int64]*domain.Trade),
		prices: make(map[string]*domain.ProtoPrice),
	}
}

func assetKey(collection, tokenID string) string {
	return collection + "/" + tokenID
}

func priceKey(collection string, proto domain.ProtoID) string {
	return collection + "/" + proto.String()
}

// AssetRepo implements storage.AssetRepository in memory.
type AssetRepo struct{ s *Storage }

func NewAssetRepo(s *Storage) *AssetRepo { return &AssetRepo{s: s} }

func (r *AssetRepo) SaveBatch(ctx context.Context, assets []*domain.Asset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range assets {
		copied := *a
		r.s.assets[assetKey(a.Collection, a.TokenID)] = &copied
	}
	return nil
}

func (r *AssetRepo) Count(ctx context.Context, collection string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	count := 0
	for _, a := range r.s.assets {
		if a.Collection == collection {
			count++
		}
	}
	return count, nil
}

func (r *AssetRepo) SupplyByProto(
	ctx context.Context,
	collection string,
) (map[domain.ProtoID]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	supply := make(map[domain.ProtoID]int64)
	for _, a := range r.s.assets {
		if a.Collection == collection && a.Status != domain.AssetStatusBurned {
			supply[a.Proto]++
		}
	}
	return supply, nil
}

// OrderRepo implements storage.OrderRepository in memory.
type OrderRepo struct{ s *Storage }

func NewOrderRepo(s *Storage) *OrderRepo { return &OrderRepo{s: s} }

func (r *OrderRepo) SaveBatch(ctx context.Context, orders []*domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range orders {
		copied := *o
		r.s.orders[o.ID] = &copied
	}
	return nil
}

func (r *OrderRepo) CountByStatus(
	ctx context.Context,
	collection string,
	status domain.OrderStatus,
) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	count := 0
	for _, o := range r.s.orders {
		if o.Collection == collection && o.Status == status {
			count++
		}
	}
	return count, nil
}

// TradeRepo implements storage.TradeRepository in memory.
type TradeRepo struct{ s *Storage }

func NewTradeRepo(s *Storage) *TradeRepo { return &TradeRepo{s: s} }

func (r *TradeRepo) SaveBatch(ctx context.Context, trades []*domain.Trade) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range trades {
		if _, exists := r.s.trades[t.ID]; exists {
			continue
		}
		copied := *t
		r.s.trades[t.ID] = &copied
	}
	return nil
}

func (r *TradeRepo) VolumeSince(
	ctx context.Context,
	collection string,
	since time.Time,
) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range r.s.trades {
		if t.Collection == collection && !t.ExecutedAt.Before(since) {
			sum = sum.Add(t.Price)
		}
	}
	return sum, nil
}

func (r *TradeRepo) DeleteOlderThan(
	ctx context.Context,
	collection string,
	threshold time.Time,
) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.trades {
		if t.Collection == collection && t.ExecutedAt.Before(threshold) {
			delete(r.s.trades, id)
		}
	}
	return nil
}

// PriceRepo implements storage.PriceRepository in memory.
type PriceRepo struct{ s *Storage }

func NewPriceRepo(s *Storage) *PriceRepo { return &PriceRepo{s: s} }

func (r *PriceRepo) Save(ctx context.Context, price *domain.ProtoPrice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	copied := *price
	r.s.prices[priceKey(price.Collection, price.Proto)] = &copied
	return nil
}

func (r *PriceRepo) Get(
	ctx context.Context,
	collection string,
	proto domain.ProtoID,
) (*domain.ProtoPrice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	price, ok := r.s.prices[priceKey(collection, proto)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *price
	return &copied, nil
}

func (r *PriceRepo) GetAll(ctx context.Context, collection string) ([]*domain.ProtoPrice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var prices []*domain.ProtoPrice
	for _, p := range r.s.prices {
		if p.Collection == collection {
			copied := *p
			prices = append(prices, &copied)
		}
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].Proto < prices[j].Proto })
	return prices, nil
}

// SnapshotRepo implements storage.SnapshotRepository in memory.
type SnapshotRepo struct{ s *Storage }

func NewSnapshotRepo(s *Storage) *SnapshotRepo { return &SnapshotRepo{s: s} }

func (r *SnapshotRepo) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	copied := *snapshot
	r.s.snapshots = append(r.s.snapshots, &copied)
	return nil
}

func (r *SnapshotRepo) Latest(ctx context.Context, collection string) (*domain.Snapshot, error) {
	snapshots, err := r.List(ctx, collection, 1)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, storage.ErrNotFound
	}
	return snapshots[0], nil
}

func (r *SnapshotRepo) List(
	ctx context.Context,
	collection string,
	limit int,
) ([]*domain.Snapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var snapshots []*domain.Snapshot
	for _, s := range r.s.snapshots {
		if s.Collection == collection {
			copied := *s
			snapshots = append(snapshots, &copied)
		}
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})
	if limit > 0 && len(snapshots) > limit {
		snapshots = snapshots[:limit]
	}
	return snapshots, nil
}

func (r *SnapshotRepo) DeleteOlderThan(
	ctx context.Context,
	collection string,
	threshold time.Time,
) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.snapshots[:0]
	for _, s := range r.s.snapshots {
		if s.Collection == collection && s.CreatedAt.Before(threshold) {
			continue
		}
		kept = append(kept, s)
	}
	r.s.snapshots = kept
	return nil
}
