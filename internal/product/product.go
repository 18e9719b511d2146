package product

import (
	"time"

	"github.com/noah-isme/storefront-engine/internal/money"
)

// Status is the seller-facing lifecycle state of a product.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusArchived:
		return true
	}
	return false
}

// Shop owns products; cart lines are grouped by it.
type Shop struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product is a sellable listing with optional variations.
type Product struct {
	ID             string       `json:"id"`
	SellerID       string       `json:"seller_id"`
	Shop           *Shop        `json:"shop,omitempty"`
	Name           string       `json:"name"`
	BasePrice      money.Money  `json:"price"`
	CompareAtPrice *money.Money `json:"compare_at_price,omitempty"`
	Quantity       int          `json:"quantity"`
	LowStockAlert  int          `json:"low_stock_alert"`
	Status         Status       `json:"status"`
	Variations     []Variation  `json:"variations,omitempty"`

	DiscountName       string     `json:"discount_name,omitempty"`
	DiscountPercentage *int       `json:"discount_percentage,omitempty"`
	DiscountStart      *time.Time `json:"discount_start_date,omitempty"`
	DiscountEnd        *time.Time `json:"discount_end_date,omitempty"`

	TotalSales   int64       `json:"total_sales"`
	TotalRevenue money.Money `json:"total_revenue"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Visible reports whether buyers can see the product. It is derived from
// Status and never stored.
func (p Product) Visible() bool { return p.Status == StatusActive }

func (p Product) HasVariations() bool { return len(p.Variations) > 0 }

// FindOption locates an option across all variations.
func (p Product) FindOption(optionID string) (Variation, Option, bool) {
	for _, v := range p.Variations {
		for _, o := range v.Options {
			if o.ID == optionID {
				return v, o, true
			}
		}
	}
	return Variation{}, Option{}, false
}

// ShopKey returns the cart grouping key, "default" when shop data is absent.
func (p Product) ShopKey() string {
	if p.Shop == nil || p.Shop.ID == "" {
		return DefaultShopKey
	}
	return p.Shop.ID
}

const DefaultShopKey = "default"

// Variation is a dimension such as "Size". When HasIndividualStock is false
// its own Quantity and LowStockAlert are authoritative for every option.
type Variation struct {
	ID                 string   `json:"id"`
	ProductID          string   `json:"product_id"`
	Name               string   `json:"name"`
	HasIndividualStock bool     `json:"has_individual_stock"`
	Quantity           int      `json:"quantity"`
	LowStockAlert      int      `json:"low_stock_alert"`
	Options            []Option `json:"options"`
}

type Option struct {
	ID             string       `json:"id"`
	VariationID    string       `json:"variation_id"`
	Name           string       `json:"name"`
	Value          string       `json:"value"`
	SKU            string       `json:"sku,omitempty"`
	Price          *money.Money `json:"price,omitempty"`
	CompareAtPrice *money.Money `json:"compare_at_price,omitempty"`
	Stock          int          `json:"stock"`
	LowStockAlert  int          `json:"low_stock_alert"`
}

// Label is the buyer-facing text for the option ("Size: M").
func (o Option) Label(v Variation) string {
	value := o.Value
	if value == "" {
		value = o.Name
	}
	if v.Name == "" {
		return value
	}
	return v.Name + ": " + value
}
