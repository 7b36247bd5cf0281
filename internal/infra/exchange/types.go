package exchange

import "time"

// AssetRecord is the wire representation of a minted asset.
type AssetRecord struct {
	TokenID    string        `json:"token_id"`
	Collection string        `json:"token_address"`
	Name       string        `json:"name"`
	Status     string        `json:"status"`
	UpdatedAt  time.Time     `json:"updated_at"`
	Metadata   AssetMetadata `json:"metadata"`
}

// AssetMetadata carries the template fields attached to an asset.
type AssetMetadata struct {
	Proto  int64  `json:"proto"`
	Rarity string `json:"rarity"`
}

// AssetsPage is one page of the assets endpoint.
type AssetsPage struct {
	Records   []AssetRecord `json:"result"`
	Cursor    string        `json:"cursor"`
	Remaining int           `json:"remaining"`
}

// HasMore reports whether another page follows.
func (p *AssetsPage) HasMore() bool { return p.Remaining > 0 && p.Cursor != "" }

// TokenData describes the side of an order that names an asset.
type TokenData struct {
	TokenID    string        `json:"token_id"`
	Collection string        `json:"token_address"`
	Properties AssetMetadata `json:"properties"`
}

// OrderSide is the sell or buy half of an order. Quantity is an integer in
// base units of the token; Decimals converts it into the display currency.
type OrderSide struct {
	Type     string    `json:"type"`
	Quantity string    `json:"quantity"`
	Decimals int32     `json:"decimals"`
	Symbol   string    `json:"symbol"`
	Data     TokenData `json:"data"`
}

// OrderRecord is the wire representation of an order.
type OrderRecord struct {
	ID        int64     `json:"order_id"`
	Status    string    `json:"status"`
	Sell      OrderSide `json:"sell"`
	Buy       OrderSide `json:"buy"`
	CreatedAt time.Time `json:"timestamp"`
	UpdatedAt time.Time `json:"updated_timestamp"`
}

// OrdersPage is one page of the orders endpoint.
type OrdersPage struct {
	Records   []OrderRecord `json:"result"`
	Cursor    string        `json:"cursor"`
	Remaining int           `json:"remaining"`
}

// HasMore reports whether another page follows.
func (p *OrdersPage) HasMore() bool { return p.Remaining > 0 && p.Cursor != "" }

// TradeRecord is the wire representation of a filled order.
type TradeRecord struct {
	ID         int64     `json:"transaction_id"`
	PartyASold OrderSide `json:"a"`
	PartyBSold OrderSide `json:"b"`
	ExecutedAt time.Time `json:"timestamp"`
}

// TradesPage is one page of the trades endpoint.
type TradesPage struct {
	Records   []TradeRecord `json:"result"`
	Cursor    string        `json:"cursor"`
	Remaining int           `json:"remaining"`
}

// HasMore reports whether another page follows.
func (p *TradesPage) HasMore() bool { return p.Remaining > 0 && p.Cursor != "" }
