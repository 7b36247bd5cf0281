// Package valuation converts marketplace quantities to decimal amounts and
// aggregates per-proto floor prices into collection-level snapshots.
package valuation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tdvu/marketsnap/internal/core/domain"
)

// UnitsToDecimal converts an integer quantity string in base units to a
// decimal amount, e.g. ("1500000000000000000", 18) -> 1.5.
func UnitsToDecimal(quantity string, decimals int32) (decimal.Decimal, error) {
	if quantity == "" {
		return decimal.Zero, nil
	}

	units, err := decimal.NewFromString(quantity)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q: %w", quantity, err)
	}
	return units.Shift(-decimals), nil
}

// Inputs collects everything a snapshot is computed from.
type Inputs struct {
	Prices       []*domain.ProtoPrice
	Supply       map[domain.ProtoID]int64
	TradeVolume  decimal.Decimal
	FailedProtos int
}

// Compute aggregates per-proto prices into a collection snapshot.
//
// The floor sum adds one floor price per listed proto. The total value
// weights each floor price by the proto's circulating supply; protos
// without a listing contribute nothing to either figure.
func Compute(collection, currency string, in Inputs) *domain.Snapshot {
	floorSum := decimal.Zero
	totalValue := decimal.Zero
	priced := 0

	for _, price := range in.Prices {
		if !price.Listed() {
			continue
		}
		priced++
		floorSum = floorSum.Add(price.FloorPrice)

		supply := in.Supply[price.Proto]
		if supply > 0 {
			totalValue = totalValue.Add(price.FloorPrice.Mul(decimal.NewFromInt(supply)))
		}
	}

	return &domain.Snapshot{
		ID:           uuid.NewString(),
		Collection:   collection,
		TotalValue:   totalValue,
		FloorSum:     floorSum,
		TradeVolume:  in.TradeVolume,
		Currency:     currency,
		PricedProtos: priced,
		FailedProtos: in.FailedProtos,
		CreatedAt:    time.Now().UTC(),
	}
}
