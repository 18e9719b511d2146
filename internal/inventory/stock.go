package inventory

import (
	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/product"
)

// Scope names the counter a stock figure was read from.
type Scope string

const (
	ScopeProduct   Scope = "product"
	ScopeVariation Scope = "variation"
	ScopeOption    Scope = "option"
)

// Stock is the authoritative availability for a product/option pair.
type Stock struct {
	Available     int    `json:"available"`
	LowStockAlert int    `json:"low_stock_alert"`
	Scope         Scope  `json:"scope"`
	TargetID      string `json:"target_id"`
}

// Level buckets stock for seller dashboards and buyer badges.
type Level string

const (
	LevelInStock    Level = "in_stock"
	LevelLowStock   Level = "low_stock"
	LevelOutOfStock Level = "out_of_stock"
)

func (s Stock) Level() Level { return StockLevel(s.Available, s.LowStockAlert) }

func StockLevel(available, lowStockAlert int) Level {
	switch {
	case available <= 0:
		return LevelOutOfStock
	case available <= lowStockAlert:
		return LevelLowStock
	default:
		return LevelInStock
	}
}

// ResolveStock picks the counter governing p for optionID. A product with
// variations requires an option; an option under a variation without
// individual stock reads the variation's aggregate counter.
func ResolveStock(p product.Product, optionID string) (Stock, error) {
	if !p.HasVariations() {
		return Stock{
			Available:     p.Quantity,
			LowStockAlert: p.LowStockAlert,
			Scope:         ScopeProduct,
			TargetID:      p.ID,
		}, nil
	}
	if optionID == "" {
		return Stock{}, common.ValidationError("option_id", "select an option for this product")
	}
	v, o, ok := p.FindOption(optionID)
	if !ok {
		return Stock{}, common.NotFoundError("option")
	}
	if v.HasIndividualStock {
		return Stock{
			Available:     o.Stock,
			LowStockAlert: o.LowStockAlert,
			Scope:         ScopeOption,
			TargetID:      o.ID,
		}, nil
	}
	return Stock{
		Available:     v.Quantity,
		LowStockAlert: v.LowStockAlert,
		Scope:         ScopeVariation,
		TargetID:      v.ID,
	}, nil
}

// ResolveOption returns the option pointer used for pricing, nil when the
// product has no variations.
func ResolveOption(p product.Product, optionID string) (*product.Option, error) {
	if !p.HasVariations() {
		return nil, nil
	}
	if optionID == "" {
		return nil, common.ValidationError("option_id", "select an option for this product")
	}
	_, o, ok := p.FindOption(optionID)
	if !ok {
		return nil, common.NotFoundError("option")
	}
	return &o, nil
}
