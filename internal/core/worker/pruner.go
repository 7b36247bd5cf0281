package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/tdvu/marketsnap/internal/infra/storage"
)

// Pruner deletes old trades and snapshots based on the retention policy.
type Pruner struct {
	collection string
	retention  time.Duration
	trades     storage.TradeRepository
	snapshots  storage.SnapshotRepository
	log        *slog.Logger
}

// NewPruner creates a new Pruner worker. A non-positive retention disables it.
func NewPruner(
	collection string,
	retention time.Duration,
	trades storage.TradeRepository,
	snapshots storage.SnapshotRepository,
) *Pruner {
	return &Pruner{
		collection: collection,
		retention:  retention,
		trades:     trades,
		snapshots:  snapshots,
		log:        slog.Default().With("component", "pruner", "collection", collection),
	}
}

// Start runs the pruner loop.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	// Check at 10% of the retention period, clamped to [1m, 1h]
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	threshold := time.Now().Add(-p.retention)

	if err := p.trades.DeleteOlderThan(ctx, p.collection, threshold); err != nil {
		p.log.Error("failed to prune trades", "error", err)
	}

	if err := p.snapshots.DeleteOlderThan(ctx, p.collection, threshold); err != nil {
		p.log.Error("failed to prune snapshots", "error", err)
	}
}
