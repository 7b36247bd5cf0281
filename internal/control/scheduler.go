package control

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler drives the periodic sync and snapshot passes.
type Scheduler struct {
	snapshotter      *Snapshotter
	syncInterval     time.Duration
	snapshotInterval time.Duration
	log              *slog.Logger
}

// NewScheduler creates a scheduler over the snapshotter.
func NewScheduler(
	snapshotter *Snapshotter,
	syncInterval, snapshotInterval time.Duration,
) *Scheduler {
	return &Scheduler{
		snapshotter:      snapshotter,
		syncInterval:     syncInterval,
		snapshotInterval: snapshotInterval,
		log:              slog.Default().With("component", "scheduler"),
	}
}

// Run executes an initial sync and snapshot, then loops on the configured
// intervals until the context ends.
func (s *Scheduler) Run(ctx context.Context) error {
	s.runSync(ctx)
	s.runSnapshot(ctx)

	syncTicker := time.NewTicker(s.syncInterval)
	defer syncTicker.Stop()
	snapTicker := time.NewTicker(s.snapshotInterval)
	defer snapTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return nil
		case <-syncTicker.C:
			s.runSync(ctx)
		case <-snapTicker.C:
			s.runSnapshot(ctx)
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.snapshotter.Sync(ctx); err != nil {
		s.log.Error("market sync failed", "error", err)
	}
}

func (s *Scheduler) runSnapshot(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.snapshotter.RunOnce(ctx); err != nil {
		s.log.Error("snapshot pass failed", "error", err)
	}
}
