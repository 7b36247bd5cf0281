package domain

import "time"

type AssetStatus string

const (
	AssetStatusMinted    AssetStatus = "minted"
	AssetStatusWithdrawn AssetStatus = "withdrawn"
	AssetStatusBurned    AssetStatus = "burned"
)

// Asset represents a single minted item on the marketplace.
type Asset struct {
	TokenID    string
	Collection string
	Proto      ProtoID
	Name       string
	Rarity     string
	Status     AssetStatus
	UpdatedAt  time.Time
}
