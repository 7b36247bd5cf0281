package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProtoPrice is the cheapest active listing observed for a proto at a
// point in time. OrderCount is the number of active listings backing it;
// zero means the proto had no listings when fetched.
type ProtoPrice struct {
	Proto      ProtoID
	Collection string
	FloorPrice decimal.Decimal
	Currency   string
	OrderCount int
	FetchedAt  time.Time
}

// Listed reports whether at least one active order backed this price.
func (p ProtoPrice) Listed() bool {
	return p.OrderCount > 0
}
