package pricing

import (
	"fmt"
	"time"

	"github.com/noah-isme/storefront-engine/internal/money"
	"github.com/noah-isme/storefront-engine/internal/product"
)

// Source tags where a resolved price came from.
type Source string

const (
	SourceOption  Source = "option"
	SourceProduct Source = "product"
	// SourceBase marks a reference price that fell back to the base price.
	SourceBase Source = "base"
)

type PriceResolution struct {
	Source Source      `json:"source"`
	Amount money.Money `json:"amount"`
}

// ResolveBasePrice returns the option price when the option carries one,
// otherwise the product price.
func ResolveBasePrice(p product.Product, opt *product.Option) PriceResolution {
	if opt != nil && opt.Price != nil {
		return PriceResolution{Source: SourceOption, Amount: *opt.Price}
	}
	return PriceResolution{Source: SourceProduct, Amount: p.BasePrice}
}

// ResolveReferencePrice walks option compare-at, product compare-at, then the
// base price. A compare-at below the base price is treated as absent.
func ResolveReferencePrice(p product.Product, opt *product.Option) PriceResolution {
	base := ResolveBasePrice(p, opt)
	if opt != nil && opt.CompareAtPrice != nil && opt.CompareAtPrice.GreaterOrEqual(base.Amount) {
		return PriceResolution{Source: SourceOption, Amount: *opt.CompareAtPrice}
	}
	if p.CompareAtPrice != nil && p.CompareAtPrice.GreaterOrEqual(base.Amount) {
		return PriceResolution{Source: SourceProduct, Amount: *p.CompareAtPrice}
	}
	return PriceResolution{Source: SourceBase, Amount: base.Amount}
}

// Quote is the price shown to a buyer at a given instant.
type Quote struct {
	UnitPrice        money.Money  `json:"unit_price"`
	WasPrice         *money.Money `json:"was_price,omitempty"`
	DiscountPercent  *int         `json:"discount_percent,omitempty"`
	DiscountName     string       `json:"discount_name,omitempty"`
	IsDiscountActive bool         `json:"is_discount_active"`
	BaseSource       Source       `json:"base_source"`
}

// Badge is the card label for an active discount, e.g. "-20%".
func (q Quote) Badge() string {
	if !q.IsDiscountActive || q.DiscountPercent == nil {
		return ""
	}
	return fmt.Sprintf("-%d%%", *q.DiscountPercent)
}

// DiscountActive reports whether the product's attached window applies at now.
// Percentage and both dates must be present.
func DiscountActive(p product.Product, now time.Time) bool {
	if p.DiscountPercentage == nil || p.DiscountStart == nil || p.DiscountEnd == nil {
		return false
	}
	pct := *p.DiscountPercentage
	if pct < 1 || pct > 100 {
		return false
	}
	return WindowStatus(now, *p.DiscountStart, *p.DiscountEnd) == WindowActive
}

// EffectivePrice computes the unit price for a product and optional option.
// An active discount window takes precedence over a compare-at markdown; the
// reference price is still reported as the was-price.
func EffectivePrice(p product.Product, opt *product.Option, now time.Time) Quote {
	base := ResolveBasePrice(p, opt)
	ref := ResolveReferencePrice(p, opt)

	q := Quote{UnitPrice: base.Amount, BaseSource: base.Source}
	if DiscountActive(p, now) {
		pct := *p.DiscountPercentage
		was := ref.Amount
		q.UnitPrice = base.Amount.PercentOff(pct)
		q.WasPrice = &was
		q.DiscountPercent = &pct
		q.DiscountName = p.DiscountName
		q.IsDiscountActive = true
		return q
	}
	if ref.Amount.GreaterThan(base.Amount) {
		was := ref.Amount
		q.WasPrice = &was
	}
	return q
}

// Item is a priced cart line.
type Item struct {
	Qty       int
	UnitPrice money.Money
}

// Subtotal sums qty × unit price, skipping non-positive quantities.
func Subtotal(items []Item) money.Money {
	total := money.Zero()
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		total = total.Add(it.UnitPrice.Mul(int64(it.Qty)))
	}
	return total
}
