package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is an aggregate valuation of a collection at a point in time.
type Snapshot struct {
	ID           string
	Collection   string
	TotalValue   decimal.Decimal
	FloorSum     decimal.Decimal
	TradeVolume  decimal.Decimal
	Currency     string
	PricedProtos int
	FailedProtos int
	CreatedAt    time.Time
}
