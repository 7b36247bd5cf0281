package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tdvu/marketsnap/internal/core/asyncjob"
	"github.com/tdvu/marketsnap/internal/core/domain"
	"github.com/tdvu/marketsnap/internal/infra/exchange"
	"github.com/tdvu/marketsnap/internal/infra/storage"
	"github.com/tdvu/marketsnap/internal/infra/storage/memory"
)

const testCollection = "0xabc"

type fakeAPI struct {
	assets func(q exchange.AssetsQuery) (*exchange.AssetsPage, error)
	orders func(q exchange.OrdersQuery) (*exchange.OrdersPage, error)
	trades func(q exchange.TradesQuery) (*exchange.TradesPage, error)
}

func (f *fakeAPI) ListAssets(
	ctx context.Context,
	q exchange.AssetsQuery,
) (*exchange.AssetsPage, error) {
	if f.assets == nil {
		return nil, errors.New("assets endpoint not faked")
	}
	return f.assets(q)
}

func (f *fakeAPI) ListOrders(
	ctx context.Context,
	q exchange.OrdersQuery,
) (*exchange.OrdersPage, error) {
	if f.orders == nil {
		return nil, errors.New("orders endpoint not faked")
	}
	return f.orders(q)
}

func (f *fakeAPI) ListTrades(
	ctx context.Context,
	q exchange.TradesQuery,
) (*exchange.TradesPage, error) {
	if f.trades == nil {
		return nil, errors.New("trades endpoint not faked")
	}
	return f.trades(q)
}

type fakeQueue struct {
	added []*domain.FailedProto
}

func (q *fakeQueue) Add(ctx context.Context, fp *domain.FailedProto) error {
	q.added = append(q.added, fp)
	return nil
}

func newTestFetcher(api API, opts Options) (*Fetcher, Stores) {
	store := memory.NewStorage()
	stores := Stores{
		Assets: memory.NewAssetRepo(store),
		Orders: memory.NewOrderRepo(store),
		Trades: memory.NewTradeRepo(store),
		Prices: memory.NewPriceRepo(store),
	}
	if opts.Collection == "" {
		opts.Collection = testCollection
	}
	if opts.Currency == "" {
		opts.Currency = "ETH"
	}
	return NewFetcher(api, stores, opts), stores
}

func assetRecord(tokenID string, proto int64) exchange.AssetRecord {
	return exchange.AssetRecord{
		TokenID:    tokenID,
		Collection: testCollection,
		Status:     "minted",
		Metadata:   exchange.AssetMetadata{Proto: proto},
	}
}

func orderRecord(id int64, proto int64, quantity string) exchange.OrderRecord {
	return exchange.OrderRecord{
		ID:     id,
		Status: "active",
		Sell: exchange.OrderSide{
			Data: exchange.TokenData{
				TokenID:    "token-1",
				Collection: testCollection,
				Properties: exchange.AssetMetadata{Proto: proto},
			},
		},
		Buy: exchange.OrderSide{
			Quantity: quantity,
			Decimals: 18,
			Symbol:   "ETH",
		},
	}
}

func TestSyncAssets_Pagination(t *testing.T) {
	var cursors []string
	api := &fakeAPI{
		assets: func(q exchange.AssetsQuery) (*exchange.AssetsPage, error) {
			cursors = append(cursors, q.Cursor)
			if q.Cursor == "" {
				return &exchange.AssetsPage{
					Records:   []exchange.AssetRecord{assetRecord("1", 10), assetRecord("2", 10)},
					Cursor:    "next",
					Remaining: 1,
				}, nil
			}
			return &exchange.AssetsPage{
				Records: []exchange.AssetRecord{assetRecord("3", 11)},
			}, nil
		},
	}

	f, stores := newTestFetcher(api, Options{})
	count, err := f.SyncAssets(context.Background())
	if err != nil {
		t.Fatalf("SyncAssets failed: %v", err)
	}

	if count != 3 {
		t.Errorf("Expected 3 assets synced, got %d", count)
	}
	if len(cursors) != 2 || cursors[1] != "next" {
		t.Errorf("Expected cursor walk [\"\" next], got %v", cursors)
	}

	stored, err := stores.Assets.Count(context.Background(), testCollection)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if stored != 3 {
		t.Errorf("Expected 3 stored assets, got %d", stored)
	}
}

func TestSyncOrders_SkipsMalformed(t *testing.T) {
	bad := orderRecord(2, 10, "not-a-number")
	api := &fakeAPI{
		orders: func(q exchange.OrdersQuery) (*exchange.OrdersPage, error) {
			return &exchange.OrdersPage{
				Records: []exchange.OrderRecord{orderRecord(1, 10, "1000000000000000000"), bad},
			}, nil
		},
	}

	f, stores := newTestFetcher(api, Options{})
	count, err := f.SyncOrders(context.Background())
	if err != nil {
		t.Fatalf("SyncOrders failed: %v", err)
	}

	if count != 1 {
		t.Errorf("Expected 1 order synced, got %d", count)
	}
	active, err := stores.Orders.CountByStatus(
		context.Background(), testCollection, domain.OrderStatusActive)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if active != 1 {
		t.Errorf("Expected 1 active order, got %d", active)
	}
}

func TestSyncTrades_MinTimestamp(t *testing.T) {
	since := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	var gotMin int64
	api := &fakeAPI{
		trades: func(q exchange.TradesQuery) (*exchange.TradesPage, error) {
			gotMin = q.MinTimestamp
			return &exchange.TradesPage{
				Records: []exchange.TradeRecord{{
					ID:         77,
					PartyASold: exchange.OrderSide{Quantity: "500000000000000000", Decimals: 18, Symbol: "ETH"},
					PartyBSold: exchange.OrderSide{Data: exchange.TokenData{
						TokenID:    "token-9",
						Collection: testCollection,
						Properties: exchange.AssetMetadata{Proto: 42},
					}},
					ExecutedAt: since.Add(time.Hour),
				}},
			}, nil
		},
	}

	f, stores := newTestFetcher(api, Options{})
	count, err := f.SyncTrades(context.Background(), since)
	if err != nil {
		t.Fatalf("SyncTrades failed: %v", err)
	}

	if count != 1 {
		t.Errorf("Expected 1 trade synced, got %d", count)
	}
	if gotMin != since.Unix() {
		t.Errorf("Expected min timestamp %d, got %d", since.Unix(), gotMin)
	}

	volume, err := stores.Trades.VolumeSince(context.Background(), testCollection, since)
	if err != nil {
		t.Fatalf("VolumeSince failed: %v", err)
	}
	if volume.String() != "0.5" {
		t.Errorf("Expected volume 0.5, got %s", volume)
	}
}

func TestFetchFloor_NoListings(t *testing.T) {
	api := &fakeAPI{
		orders: func(q exchange.OrdersQuery) (*exchange.OrdersPage, error) {
			return &exchange.OrdersPage{}, nil
		},
	}

	f, _ := newTestFetcher(api, Options{})
	price, err := f.FetchFloor(context.Background(), 7)
	if err != nil {
		t.Fatalf("FetchFloor failed: %v", err)
	}

	if price.Listed() {
		t.Error("Expected unlisted price for proto with no orders")
	}
	if !price.FloorPrice.IsZero() {
		t.Errorf("Expected zero floor, got %s", price.FloorPrice)
	}
}

func TestPriceJob_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	api := &fakeAPI{
		orders: func(q exchange.OrdersQuery) (*exchange.OrdersPage, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("upstream hiccup")
			}
			return &exchange.OrdersPage{
				Records: []exchange.OrderRecord{orderRecord(1, 7, "2000000000000000000")},
			}, nil
		},
	}

	f, stores := newTestFetcher(api, Options{Retry: asyncjob.RetryOptions{MaxRetries: 3}})

	job := f.PriceJob(7)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("PriceJob failed: %v", err)
	}

	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
	if job.Result().FloorPrice.String() != "2" {
		t.Errorf("Expected floor 2, got %s", job.Result().FloorPrice)
	}

	saved, err := stores.Prices.Get(context.Background(), testCollection, 7)
	if err != nil {
		t.Fatalf("Get price failed: %v", err)
	}
	if !saved.FloorPrice.Equal(job.Result().FloorPrice) {
		t.Errorf("Persisted floor %s differs from result %s", saved.FloorPrice, job.Result().FloorPrice)
	}
}

func TestPriceJob_Exhausted(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	api := &fakeAPI{
		orders: func(q exchange.OrdersQuery) (*exchange.OrdersPage, error) {
			calls++
			return nil, boom
		},
	}

	f, _ := newTestFetcher(api, Options{Retry: asyncjob.RetryOptions{MaxRetries: 2}})

	err := f.PriceJob(9).Run(context.Background())
	var exhausted *asyncjob.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Expected ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", exhausted.Attempts)
	}
	if !errors.Is(err, boom) {
		t.Error("Expected exhausted error to wrap the last cause")
	}
	if calls != 3 {
		t.Errorf("Expected 3 API calls, got %d", calls)
	}
}

func TestPricePass_IsolatesFailures(t *testing.T) {
	api := &fakeAPI{
		orders: func(q exchange.OrdersQuery) (*exchange.OrdersPage, error) {
			if q.Proto == 2 {
				return nil, errors.New("proto 2 is cursed")
			}
			return &exchange.OrdersPage{
				Records: []exchange.OrderRecord{orderRecord(q.Proto, q.Proto, "1000000000000000000")},
			}, nil
		},
	}

	queue := &fakeQueue{}
	f, _ := newTestFetcher(api, Options{
		Retry: asyncjob.RetryOptions{MaxRetries: 1},
		Queue: queue,
	})

	result, err := f.PricePass(context.Background(), 1, 4)
	if err != nil {
		t.Fatalf("PricePass failed: %v", err)
	}

	if len(result.Prices) != 2 {
		t.Errorf("Expected 2 priced protos, got %d", len(result.Prices))
	}
	if len(result.Failed) != 1 || result.Failed[0] != 2 {
		t.Errorf("Expected failed protos [2], got %v", result.Failed)
	}
	if len(queue.added) != 1 || queue.added[0].Proto != 2 {
		t.Errorf("Expected proto 2 queued for requeue, got %+v", queue.added)
	}
}

func TestPricePass_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	api := &fakeAPI{
		orders: func(q exchange.OrdersQuery) (*exchange.OrdersPage, error) {
			t.Fatal("API must not be called with a cancelled context")
			return nil, nil
		},
	}

	f, _ := newTestFetcher(api, Options{})
	_, err := f.PricePass(ctx, 1, 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestPriceRange_Composition(t *testing.T) {
	api := &fakeAPI{
		orders: func(q exchange.OrdersQuery) (*exchange.OrdersPage, error) {
			return &exchange.OrdersPage{
				Records: []exchange.OrderRecord{orderRecord(q.Proto, q.Proto, "1000000000000000000")},
			}, nil
		},
	}

	f, stores := newTestFetcher(api, Options{})

	seq := f.PriceRange(5, 9)
	if seq.Len() != 4 {
		t.Fatalf("Expected 4 jobs in range, got %d", seq.Len())
	}
	if err := seq.Run(context.Background()); err != nil {
		t.Fatalf("PriceRange run failed: %v", err)
	}

	prices, err := stores.Prices.GetAll(context.Background(), testCollection)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(prices) != 4 {
		t.Errorf("Expected 4 stored prices, got %d", len(prices))
	}
}

func TestProtoRanges_ExcludeUpperBound(t *testing.T) {
	api := &fakeAPI{
		orders: func(q exchange.OrdersQuery) (*exchange.OrdersPage, error) {
			return &exchange.OrdersPage{
				Records: []exchange.OrderRecord{orderRecord(q.Proto, q.Proto, "1000000000000000000")},
			}, nil
		},
	}

	f, stores := newTestFetcher(api, Options{})

	if got := f.PriceRange(5, 5).Len(); got != 0 {
		t.Errorf("Expected empty range [5, 5) to produce 0 jobs, got %d", got)
	}

	result, err := f.PricePass(context.Background(), 7, 8)
	if err != nil {
		t.Fatalf("PricePass failed: %v", err)
	}
	if len(result.Prices) != 1 || result.Prices[0].Proto != 7 {
		t.Fatalf("Expected only proto 7 priced, got %+v", result.Prices)
	}

	if _, err := stores.Prices.Get(context.Background(), testCollection, 8); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected no price stored for the exclusive upper bound, got err=%v", err)
	}
}
