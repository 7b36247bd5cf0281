package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusExpired   OrderStatus = "expired"
)

// Order represents a sell order listed on the exchange. Price is already
// converted out of base units into the quote currency.
type Order struct {
	ID         int64
	Collection string
	Proto      ProtoID
	TokenID    string
	Status     OrderStatus
	Price      decimal.Decimal
	Currency   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
