// Package control wires the service together and manages its lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tdvu/marketsnap/internal/core/asyncjob"
	"github.com/tdvu/marketsnap/internal/core/config"
	"github.com/tdvu/marketsnap/internal/core/worker"
	"github.com/tdvu/marketsnap/internal/health"
	"github.com/tdvu/marketsnap/internal/infra/exchange"
	redisclient "github.com/tdvu/marketsnap/internal/infra/redis"
	"github.com/tdvu/marketsnap/internal/infra/storage"
	"github.com/tdvu/marketsnap/internal/infra/storage/memory"
	"github.com/tdvu/marketsnap/internal/infra/storage/postgres"
	"github.com/tdvu/marketsnap/internal/market/fetch"
)

// Config holds the application configuration.
type Config struct {
	Port           int
	Exchange       exchange.Config
	Market         config.MarketConfig
	Redis          redisclient.Config
	Database       postgres.Config
	RequeueEnabled bool // CLI flag
}

// Service is the main application struct that manages the pipeline lifecycle.
type Service struct {
	cfg          Config
	client       *exchange.Client
	fetcher      *fetch.Fetcher
	snapshotter  *Snapshotter
	scheduler    *Scheduler
	requeue      *RequeueWorker
	pruner       *worker.Pruner
	healthServer *health.Server
	db           *postgres.DB
	redisClient  *redisclient.Client
	snapshots    storage.SnapshotRepository
	prices       storage.PriceRepository
	log          *slog.Logger
}

// alwaysHealthy stands in for the database pinger in memory mode.
type alwaysHealthy struct{}

func (alwaysHealthy) Health(ctx context.Context) error { return nil }

// NewService creates a new Service instance with all dependencies initialized.
func NewService(cfg Config) (*Service, error) {
	// 1. Initialize Storage
	var (
		assetRepo    storage.AssetRepository
		orderRepo    storage.OrderRepository
		tradeRepo    storage.TradeRepository
		priceRepo    storage.PriceRepository
		snapshotRepo storage.SnapshotRepository
		db           *postgres.DB
		dbPinger     health.Pinger = alwaysHealthy{}
	)

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(); err != nil {
			return nil, err
		}

		assetRepo = postgres.NewAssetRepo(db)
		orderRepo = postgres.NewOrderRepo(db)
		tradeRepo = postgres.NewTradeRepo(db)
		priceRepo = postgres.NewPriceRepo(db)
		snapshotRepo = postgres.NewSnapshotRepo(db)
		dbPinger = db

		slog.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewStorage()
		assetRepo = memory.NewAssetRepo(store)
		orderRepo = memory.NewOrderRepo(store)
		tradeRepo = memory.NewTradeRepo(store)
		priceRepo = memory.NewPriceRepo(store)
		snapshotRepo = memory.NewSnapshotRepo(store)

		slog.Info("Using Memory storage")
	}

	// 2. Initialize Redis (cache + requeue, optional)
	var (
		redisClient *redisclient.Client
		failedRepo  *redisclient.FailedProtoRepo
		redisPinger health.Pinger
		queueDepth  health.QueueDepth
	)
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, cache and requeue disabled", "error", err)
		} else {
			failedRepo = redisclient.NewFailedProtoRepo(redisClient, cfg.Market.Collection)
			redisPinger = redisClient
			queueDepth = failedRepo
		}
	}

	// 3. Initialize the exchange client and fetcher
	client := exchange.NewClient(cfg.Exchange)

	fetchOpts := fetch.Options{
		Collection: cfg.Market.Collection,
		Currency:   cfg.Market.Currency,
		PriceTTL:   cfg.Redis.PriceTTL,
		Retry:      asyncjob.RetryOptions{MaxRetries: cfg.Market.MaxRetries},
	}
	if redisClient != nil {
		fetchOpts.Cache = redisClient
		fetchOpts.Queue = failedRepo
	}
	fetcher := fetch.NewFetcher(client, fetch.Stores{
		Assets: assetRepo,
		Orders: orderRepo,
		Trades: tradeRepo,
		Prices: priceRepo,
	}, fetchOpts)

	// 4. Pipeline components
	snapshotter := NewSnapshotter(fetcher, assetRepo, tradeRepo, snapshotRepo, cfg.Market)
	scheduler := NewScheduler(snapshotter, cfg.Market.SyncInterval, cfg.Market.SnapshotInterval)
	pruner := worker.NewPruner(
		cfg.Market.Collection, cfg.Market.RetentionPeriod, tradeRepo, snapshotRepo)

	var requeue *RequeueWorker
	if failedRepo != nil && cfg.RequeueEnabled {
		requeue = NewRequeueWorker(
			DefaultRequeueConfig(), cfg.Market.Collection, failedRepo, fetcher)
		slog.Info("Requeue worker initialized", "collection", cfg.Market.Collection)
	}

	// 5. Health monitor and server
	healthMon := health.NewMonitor(
		cfg.Market.Collection,
		dbPinger,
		redisPinger,
		client,
		snapshotRepo,
		queueDepth,
		cfg.Market.SnapshotInterval,
	)
	healthServer := health.NewServer(healthMon, cfg.Port)

	return &Service{
		cfg:          cfg,
		client:       client,
		fetcher:      fetcher,
		snapshotter:  snapshotter,
		scheduler:    scheduler,
		requeue:      requeue,
		pruner:       pruner,
		healthServer: healthServer,
		db:           db,
		redisClient:  redisClient,
		snapshots:    snapshotRepo,
		prices:       priceRepo,
		log:          slog.Default(),
	}, nil
}

// Start starts the service and all its components.
func (s *Service) Start(ctx context.Context) error {
	// Start Health Server
	go func() {
		if err := s.healthServer.Start(); err != nil {
			s.log.Error("Health server failed", "error", err)
		}
	}()

	// Start DB Metrics Collector
	if s.db != nil {
		s.db.StartMetricsCollector(ctx)
	}

	// Start the sync/snapshot scheduler
	go func() {
		if err := s.scheduler.Run(ctx); err != nil {
			s.log.Error("Scheduler failed", "error", err)
		}
	}()

	// Start the requeue worker
	if s.requeue != nil {
		go func() {
			if err := s.requeue.Run(ctx); err != nil {
				s.log.Error("Requeue worker failed", "error", err)
			}
		}()
	}

	// Start the retention pruner
	go s.pruner.Start(ctx)

	return nil
}

// Stop stops the service.
func (s *Service) Stop(ctx context.Context) error {
	s.log.Info("Stopping service...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.log.Warn("Failed to close Redis", "error", err)
		}
	}

	if err := s.client.Close(); err != nil {
		s.log.Warn("Failed to close exchange client", "error", err)
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn("Failed to close database", "error", err)
		}
	}

	return s.healthServer.Stop(ctx)
}

// Snapshotter exposes the snapshot pipeline for one-shot CLI runs.
func (s *Service) Snapshotter() *Snapshotter {
	return s.snapshotter
}

// Snapshots exposes the snapshot repository for the status CLI.
func (s *Service) Snapshots() storage.SnapshotRepository {
	return s.snapshots
}

// Prices exposes the price repository for the status CLI.
func (s *Service) Prices() storage.PriceRepository {
	return s.prices
}
