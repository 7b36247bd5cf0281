package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tdvu/marketsnap/internal/core/asyncjob"
	"github.com/tdvu/marketsnap/internal/core/domain"
	"github.com/tdvu/marketsnap/internal/infra/exchange"
	"github.com/tdvu/marketsnap/internal/market/valuation"
	"github.com/tdvu/marketsnap/internal/metrics"
)

// floorPageSize bounds the order page fetched per proto. The first record
// is the floor; the page length doubles as a depth indicator.
const floorPageSize = 20

// FetchFloor fetches the cheapest active listing for a proto. A proto with
// no listings yields a price with OrderCount zero, not an error.
func (f *Fetcher) FetchFloor(
	ctx context.Context,
	proto domain.ProtoID,
) (*domain.ProtoPrice, error) {
	page, err := f.api.ListOrders(ctx, exchange.OrdersQuery{
		Collection:    f.collection,
		Status:        string(domain.OrderStatusActive),
		Proto:         int64(proto),
		CheapestFirst: true,
		PageSize:      floorPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders for proto %d: %w", proto, err)
	}

	price := &domain.ProtoPrice{
		Proto:      proto,
		Collection: f.collection,
		Currency:   f.currency,
		FetchedAt:  time.Now().UTC(),
	}

	if len(page.Records) == 0 {
		return price, nil
	}

	cheapest := page.Records[0]
	floor, err := valuation.UnitsToDecimal(cheapest.Buy.Quantity, cheapest.Buy.Decimals)
	if err != nil {
		return nil, fmt.Errorf("floor price for proto %d: %w", proto, err)
	}

	price.FloorPrice = floor
	price.OrderCount = len(page.Records)
	if cheapest.Buy.Symbol != "" {
		price.Currency = cheapest.Buy.Symbol
	}
	return price, nil
}

// PriceJob wraps fetching and persisting one proto's floor price in a
// retryable job. The persisted price is available via Result after a
// successful Run.
func (f *Fetcher) PriceJob(proto domain.ProtoID) *asyncjob.Independent[*domain.ProtoPrice] {
	return asyncjob.NewIndependent(func(ctx context.Context) (*domain.ProtoPrice, error) {
		metrics.JobAttemptsTotal.WithLabelValues("price").Inc()

		price, err := f.FetchFloor(ctx, proto)
		if err != nil {
			return nil, err
		}

		if err := f.stores.Prices.Save(ctx, price); err != nil {
			return nil, fmt.Errorf("save price for proto %d: %w", proto, err)
		}

		if f.cache != nil {
			if err := f.cache.CachePrice(ctx, price, f.priceTTL); err != nil {
				f.logger.Warn("failed to cache price", "proto", proto, "error", err)
			}
		}

		return price, nil
	}, f.retry)
}

// PriceRange composes the per-proto price jobs for [from, to) into a single
// sequence. A proto that exhausts its own retries restarts the whole range,
// so the sequence either prices every proto or fails as a unit.
func (f *Fetcher) PriceRange(from, to domain.ProtoID) *asyncjob.Sequence {
	var jobs []asyncjob.Job
	for proto := from; proto < to; proto++ {
		jobs = append(jobs, f.PriceJob(proto))
	}
	return asyncjob.NewSequence(jobs, asyncjob.DefaultRetryOptions)
}

// PassResult is the outcome of one pricing pass over a proto range.
type PassResult struct {
	Prices []*domain.ProtoPrice
	Failed []domain.ProtoID
}

// PricePass prices every proto in [from, to), isolating failures: a proto
// that exhausts its retries is recorded in the failed queue and skipped
// rather than aborting the pass. Only a context error stops the pass early.
func (f *Fetcher) PricePass(
	ctx context.Context,
	from, to domain.ProtoID,
) (*PassResult, error) {
	result := &PassResult{}

	for proto := from; proto < to; proto++ {
		job := f.PriceJob(proto)
		if err := job.Run(ctx); err != nil {
			var exhausted *asyncjob.ExhaustedError
			if !errors.As(err, &exhausted) {
				return result, err
			}

			metrics.JobsExhaustedTotal.WithLabelValues("price").Inc()
			f.logger.Warn("proto pricing exhausted retries",
				"proto", proto, "attempts", exhausted.Attempts, "error", exhausted.Cause)
			result.Failed = append(result.Failed, proto)
			f.enqueueFailure(ctx, proto, exhausted)
			continue
		}
		result.Prices = append(result.Prices, job.Result())
	}

	return result, nil
}

func (f *Fetcher) enqueueFailure(
	ctx context.Context,
	proto domain.ProtoID,
	exhausted *asyncjob.ExhaustedError,
) {
	if f.queue == nil {
		return
	}
	// A client-side error never heals on retry, so requeueing it would
	// just churn the worker.
	if exchange.ClassifyError(exhausted.Cause) == exchange.ActionFatal {
		f.logger.Error("proto pricing failed permanently, not requeueing",
			"proto", proto, "error", exhausted.Cause)
		return
	}

	now := time.Now().UTC()
	fp := &domain.FailedProto{
		Proto:       proto,
		Collection:  f.collection,
		LastError:   exhausted.Cause.Error(),
		FirstFailed: now,
		LastAttempt: now,
	}
	if err := f.queue.Add(ctx, fp); err != nil {
		f.logger.Error("failed to enqueue proto for requeue", "proto", proto, "error", err)
	}
}
