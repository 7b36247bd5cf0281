// Package fetch crawls the marketplace API and lands the results in
// storage: full asset/order/trade syncs plus per-proto floor pricing.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tdvu/marketsnap/internal/core/asyncjob"
	"github.com/tdvu/marketsnap/internal/core/domain"
	"github.com/tdvu/marketsnap/internal/infra/exchange"
	"github.com/tdvu/marketsnap/internal/infra/storage"
	"github.com/tdvu/marketsnap/internal/metrics"
)

// API is the slice of the exchange client the fetcher needs.
type API interface {
	ListAssets(ctx context.Context, q exchange.AssetsQuery) (*exchange.AssetsPage, error)
	ListOrders(ctx context.Context, q exchange.OrdersQuery) (*exchange.OrdersPage, error)
	ListTrades(ctx context.Context, q exchange.TradesQuery) (*exchange.TradesPage, error)
}

// PriceCache caches freshly fetched prices for readers outside the
// snapshot pipeline.
type PriceCache interface {
	CachePrice(ctx context.Context, price *domain.ProtoPrice, ttl time.Duration) error
	GetCachedPrice(
		ctx context.Context,
		collection string,
		proto domain.ProtoID,
	) (*domain.ProtoPrice, error)
}

// FailedQueue collects protos whose pricing exhausted its retries.
type FailedQueue interface {
	Add(ctx context.Context, fp *domain.FailedProto) error
}

// Stores groups the repositories the fetcher writes to.
type Stores struct {
	Assets storage.AssetRepository
	Orders storage.OrderRepository
	Trades storage.TradeRepository
	Prices storage.PriceRepository
}

// Options configures a Fetcher.
type Options struct {
	Collection string
	Currency   string
	PriceTTL   time.Duration
	Retry      asyncjob.RetryOptions
	Cache      PriceCache   // optional
	Queue      FailedQueue  // optional
	Logger     *slog.Logger // optional
}

// Fetcher pulls marketplace data into local storage.
type Fetcher struct {
	api        API
	stores     Stores
	cache      PriceCache
	queue      FailedQueue
	collection string
	currency   string
	priceTTL   time.Duration
	retry      asyncjob.RetryOptions
	logger     *slog.Logger
}

// NewFetcher creates a fetcher for one collection.
func NewFetcher(api API, stores Stores, opts Options) *Fetcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	priceTTL := opts.PriceTTL
	if priceTTL <= 0 {
		priceTTL = 10 * time.Minute
	}

	return &Fetcher{
		api:        api,
		stores:     stores,
		cache:      opts.Cache,
		queue:      opts.Queue,
		collection: opts.Collection,
		currency:   opts.Currency,
		priceTTL:   priceTTL,
		retry:      opts.Retry,
		logger:     logger.With("collection", opts.Collection),
	}
}

// SyncAssets crawls every asset page for the collection and upserts the
// records. Returns the number of assets written.
func (f *Fetcher) SyncAssets(ctx context.Context) (int, error) {
	cursor := ""
	total := 0

	for {
		page, err := f.api.ListAssets(ctx, exchange.AssetsQuery{
			Collection: f.collection,
			Cursor:     cursor,
		})
		if err != nil {
			return total, fmt.Errorf("list assets: %w", err)
		}

		batch := make([]*domain.Asset, 0, len(page.Records))
		for _, rec := range page.Records {
			batch = append(batch, assetFromRecord(rec))
		}
		if err := f.stores.Assets.SaveBatch(ctx, batch); err != nil {
			return total, fmt.Errorf("save assets: %w", err)
		}

		total += len(batch)
		metrics.RecordsSynced.WithLabelValues(f.collection, "assets").Add(float64(len(batch)))

		if !page.HasMore() {
			break
		}
		cursor = page.Cursor
	}

	f.logger.Info("assets synced", "count", total)
	return total, nil
}

// SyncOrders crawls every active order page for the collection and upserts
// the records. Returns the number of orders written.
func (f *Fetcher) SyncOrders(ctx context.Context) (int, error) {
	cursor := ""
	total := 0

	for {
		page, err := f.api.ListOrders(ctx, exchange.OrdersQuery{
			Collection: f.collection,
			Status:     string(domain.OrderStatusActive),
			Cursor:     cursor,
		})
		if err != nil {
			return total, fmt.Errorf("list orders: %w", err)
		}

		batch := make([]*domain.Order, 0, len(page.Records))
		for _, rec := range page.Records {
			order, err := orderFromRecord(rec)
			if err != nil {
				f.logger.Warn("skipping malformed order", "order_id", rec.ID, "error", err)
				continue
			}
			batch = append(batch, order)
		}
		if err := f.stores.Orders.SaveBatch(ctx, batch); err != nil {
			return total, fmt.Errorf("save orders: %w", err)
		}

		total += len(batch)
		metrics.RecordsSynced.WithLabelValues(f.collection, "orders").Add(float64(len(batch)))

		if !page.HasMore() {
			break
		}
		cursor = page.Cursor
	}

	f.logger.Info("orders synced", "count", total)
	return total, nil
}

// SyncTrades crawls trades executed at or after since and inserts the
// records. Returns the number of trades written.
func (f *Fetcher) SyncTrades(ctx context.Context, since time.Time) (int, error) {
	cursor := ""
	total := 0

	var minTimestamp int64
	if !since.IsZero() {
		minTimestamp = since.Unix()
	}

	for {
		page, err := f.api.ListTrades(ctx, exchange.TradesQuery{
			Collection:   f.collection,
			MinTimestamp: minTimestamp,
			Cursor:       cursor,
		})
		if err != nil {
			return total, fmt.Errorf("list trades: %w", err)
		}

		batch := make([]*domain.Trade, 0, len(page.Records))
		for _, rec := range page.Records {
			trade, err := tradeFromRecord(rec)
			if err != nil {
				f.logger.Warn("skipping malformed trade", "trade_id", rec.ID, "error", err)
				continue
			}
			batch = append(batch, trade)
		}
		if err := f.stores.Trades.SaveBatch(ctx, batch); err != nil {
			return total, fmt.Errorf("save trades: %w", err)
		}

		total += len(batch)
		metrics.RecordsSynced.WithLabelValues(f.collection, "trades").Add(float64(len(batch)))

		if !page.HasMore() {
			break
		}
		cursor = page.Cursor
	}

	f.logger.Info("trades synced", "count", total)
	return total, nil
}
