package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents a filled order (a completed sale).
type Trade struct {
	ID         int64
	Collection string
	Proto      ProtoID
	TokenID    string
	Price      decimal.Decimal
	Currency   string
	ExecutedAt time.Time
}
