package control

import (
	"context"
	"log/slog"
	"time"

	"github.com/tdvu/marketsnap/internal/core/domain"
	"github.com/tdvu/marketsnap/internal/infra/exchange"
	"github.com/tdvu/marketsnap/internal/market/fetch"
	"github.com/tdvu/marketsnap/internal/metrics"
)

// RequeueConfig holds configuration for the requeue worker.
type RequeueConfig struct {
	EmptySleep  time.Duration // Sleep when queue empty (default: 30s)
	MaxAttempts int           // Drop a proto after this many requeue attempts (default: 10)
}

// DefaultRequeueConfig returns default requeue worker configuration.
func DefaultRequeueConfig() RequeueConfig {
	return RequeueConfig{
		EmptySleep:  30 * time.Second,
		MaxAttempts: 10,
	}
}

// FailedProtoQueue is the slice of the Redis repo the worker needs.
type FailedProtoQueue interface {
	GetNext(ctx context.Context) (*domain.FailedProto, error)
	IncrementRetry(ctx context.Context, proto domain.ProtoID) error
	MarkResolved(ctx context.Context, proto domain.ProtoID) error
	Count(ctx context.Context) (int, error)
}

// RequeueWorker re-prices protos that exhausted their retries during a
// snapshot pass.
type RequeueWorker struct {
	cfg        RequeueConfig
	collection string
	queue      FailedProtoQueue
	fetcher    *fetch.Fetcher
	log        *slog.Logger
}

// NewRequeueWorker creates a new requeue worker.
func NewRequeueWorker(
	cfg RequeueConfig,
	collection string,
	queue FailedProtoQueue,
	fetcher *fetch.Fetcher,
) *RequeueWorker {
	return &RequeueWorker{
		cfg:        cfg,
		collection: collection,
		queue:      queue,
		fetcher:    fetcher,
		log:        slog.Default().With("component", "requeue", "collection", collection),
	}
}

// Run starts the worker loop.
func (w *RequeueWorker) Run(ctx context.Context) error {
	w.log.Info("Starting requeue worker")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Requeue worker stopped")
			return nil
		default:
		}

		w.updateDepth(ctx)

		fp, err := w.queue.GetNext(ctx)
		if err != nil {
			w.log.Error("Failed to get next failed proto", "error", err)
			w.sleep(ctx)
			continue
		}
		if fp == nil {
			w.sleep(ctx)
			continue
		}

		if err := w.fetcher.PriceJob(fp.Proto).Run(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			if exchange.ClassifyError(err) == exchange.ActionFatal {
				w.log.Warn("Dropping proto with permanent error", "proto", fp.Proto, "error", err)
				if remErr := w.queue.MarkResolved(ctx, fp.Proto); remErr != nil {
					w.log.Error("Failed to drop proto", "proto", fp.Proto, "error", remErr)
				}
				continue
			}
			if fp.RetryCount+1 >= w.cfg.MaxAttempts {
				w.log.Warn("Dropping proto after repeated requeue failures",
					"proto", fp.Proto, "attempts", fp.RetryCount+1, "error", err)
				if remErr := w.queue.MarkResolved(ctx, fp.Proto); remErr != nil {
					w.log.Error("Failed to drop proto", "proto", fp.Proto, "error", remErr)
				}
				continue
			}
			if incErr := w.queue.IncrementRetry(ctx, fp.Proto); incErr != nil {
				w.log.Error("Failed to increment retry", "proto", fp.Proto, "error", incErr)
			}
			w.sleep(ctx)
			continue
		}

		w.log.Info("Requeued proto priced", "proto", fp.Proto)
		if err := w.queue.MarkResolved(ctx, fp.Proto); err != nil {
			w.log.Error("Failed to mark proto resolved", "proto", fp.Proto, "error", err)
		}
	}
}

func (w *RequeueWorker) updateDepth(ctx context.Context) {
	if count, err := w.queue.Count(ctx); err == nil {
		metrics.RetryQueueDepth.WithLabelValues(w.collection).Set(float64(count))
	}
}

func (w *RequeueWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.cfg.EmptySleep):
	}
}
