package fetch

import (
	"github.com/tdvu/marketsnap/internal/core/domain"
	"github.com/tdvu/marketsnap/internal/infra/exchange"
	"github.com/tdvu/marketsnap/internal/market/valuation"
)

func assetFromRecord(rec exchange.AssetRecord) *domain.Asset {
	return &domain.Asset{
		TokenID:    rec.TokenID,
		Collection: rec.Collection,
		Proto:      domain.ProtoID(rec.Metadata.Proto),
		Name:       rec.Name,
		Rarity:     rec.Metadata.Rarity,
		Status:     domain.AssetStatus(rec.Status),
		UpdatedAt:  rec.UpdatedAt,
	}
}

// orderFromRecord converts a wire order. The sell side names the asset; the
// buy side carries the asking price in base units.
func orderFromRecord(rec exchange.OrderRecord) (*domain.Order, error) {
	price, err := valuation.UnitsToDecimal(rec.Buy.Quantity, rec.Buy.Decimals)
	if err != nil {
		return nil, err
	}

	return &domain.Order{
		ID:         rec.ID,
		Collection: rec.Sell.Data.Collection,
		Proto:      domain.ProtoID(rec.Sell.Data.Properties.Proto),
		TokenID:    rec.Sell.Data.TokenID,
		Status:     domain.OrderStatus(rec.Status),
		Price:      price,
		Currency:   rec.Buy.Symbol,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}, nil
}

// tradeFromRecord converts a wire trade. Party B sold the asset; party A
// paid for it, so the sale price comes from party A's side.
func tradeFromRecord(rec exchange.TradeRecord) (*domain.Trade, error) {
	price, err := valuation.UnitsToDecimal(rec.PartyASold.Quantity, rec.PartyASold.Decimals)
	if err != nil {
		return nil, err
	}

	return &domain.Trade{
		ID:         rec.ID,
		Collection: rec.PartyBSold.Data.Collection,
		Proto:      domain.ProtoID(rec.PartyBSold.Data.Properties.Proto),
		TokenID:    rec.PartyBSold.Data.TokenID,
		Price:      price,
		Currency:   rec.PartyASold.Symbol,
		ExecutedAt: rec.ExecutedAt,
	}, nil
}
