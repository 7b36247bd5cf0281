package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tdvu/marketsnap/internal/core/asyncjob"
	"github.com/tdvu/marketsnap/internal/core/config"
	"github.com/tdvu/marketsnap/internal/core/domain"
	"github.com/tdvu/marketsnap/internal/infra/storage"
	"github.com/tdvu/marketsnap/internal/market/fetch"
	"github.com/tdvu/marketsnap/internal/market/valuation"
	"github.com/tdvu/marketsnap/internal/metrics"
)

// volumeWindow is the trade lookback used for a snapshot's volume figure.
const volumeWindow = 24 * time.Hour

// Snapshotter runs the market sync and snapshot passes.
type Snapshotter struct {
	fetcher   *fetch.Fetcher
	assets    storage.AssetRepository
	trades    storage.TradeRepository
	snapshots storage.SnapshotRepository
	market    config.MarketConfig
	log       *slog.Logger
}

// NewSnapshotter creates a snapshotter for one collection.
func NewSnapshotter(
	fetcher *fetch.Fetcher,
	assets storage.AssetRepository,
	trades storage.TradeRepository,
	snapshots storage.SnapshotRepository,
	market config.MarketConfig,
) *Snapshotter {
	return &Snapshotter{
		fetcher:   fetcher,
		assets:    assets,
		trades:    trades,
		snapshots: snapshots,
		market:    market,
		log:       slog.Default().With("component", "snapshotter", "collection", market.Collection),
	}
}

// SyncSequence composes the asset, order and trade crawls into one
// sequence. A crawl that exhausts its retries restarts the whole sync, so
// a completed sequence means every dataset is from the same pass.
func (s *Snapshotter) SyncSequence() *asyncjob.Sequence {
	retry := asyncjob.RetryOptions{MaxRetries: s.market.MaxRetries}

	assetsJob := asyncjob.NewIndependent(func(ctx context.Context) (int, error) {
		return s.fetcher.SyncAssets(ctx)
	}, retry)
	ordersJob := asyncjob.NewIndependent(func(ctx context.Context) (int, error) {
		return s.fetcher.SyncOrders(ctx)
	}, retry)
	tradesJob := asyncjob.NewIndependent(func(ctx context.Context) (int, error) {
		return s.fetcher.SyncTrades(ctx, time.Now().Add(-2*volumeWindow))
	}, retry)

	return asyncjob.NewSequence(
		[]asyncjob.Job{assetsJob, ordersJob, tradesJob},
		asyncjob.RetryOptions{MaxRetries: 1},
	)
}

// Sync runs the full market sync to completion.
func (s *Snapshotter) Sync(ctx context.Context) error {
	metrics.JobAttemptsTotal.WithLabelValues("sync").Inc()
	if err := s.SyncSequence().Run(ctx); err != nil {
		metrics.JobsExhaustedTotal.WithLabelValues("sync").Inc()
		return fmt.Errorf("market sync: %w", err)
	}
	return nil
}

// RunOnce prices the configured proto range and persists one snapshot.
func (s *Snapshotter) RunOnce(ctx context.Context) (*domain.Snapshot, error) {
	started := time.Now()

	pass, err := s.fetcher.PricePass(ctx, s.market.ProtoFrom, s.market.ProtoTo)
	if err != nil {
		return nil, fmt.Errorf("price pass: %w", err)
	}

	supply, err := s.assets.SupplyByProto(ctx, s.market.Collection)
	if err != nil {
		return nil, fmt.Errorf("supply by proto: %w", err)
	}

	volume, err := s.trades.VolumeSince(ctx, s.market.Collection, time.Now().Add(-volumeWindow))
	if err != nil {
		return nil, fmt.Errorf("trade volume: %w", err)
	}

	snap := valuation.Compute(s.market.Collection, s.market.Currency, valuation.Inputs{
		Prices:       pass.Prices,
		Supply:       supply,
		TradeVolume:  volume,
		FailedProtos: len(pass.Failed),
	})

	if err := s.snapshots.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	metrics.ProtosPriced.WithLabelValues(s.market.Collection).Set(float64(snap.PricedProtos))
	metrics.ProtosFailed.WithLabelValues(s.market.Collection).Set(float64(snap.FailedProtos))
	metrics.SnapshotTotalValue.WithLabelValues(s.market.Collection, snap.Currency).
		Set(snap.TotalValue.InexactFloat64())
	metrics.SnapshotsTotal.WithLabelValues(s.market.Collection).Inc()

	s.log.Info("snapshot persisted",
		"id", snap.ID,
		"total_value", snap.TotalValue,
		"floor_sum", snap.FloorSum,
		"priced", snap.PricedProtos,
		"failed", snap.FailedProtos,
		"took", time.Since(started).Truncate(time.Millisecond))
	return snap, nil
}
