package pricing

import (
	"time"

	"github.com/noah-isme/storefront-engine/internal/money"
	"github.com/noah-isme/storefront-engine/internal/product"
)

// Range is the span of effective prices across a product's options.
type Range struct {
	Min money.Money `json:"min"`
	Max money.Money `json:"max"`
}

func (r Range) Single() bool { return r.Min.Equal(r.Max) }

// Label renders "₱500", "₱500 – ₱800" or "₱499.60 – ₱500.40". Centavos are
// dropped only when both ends are whole pesos; one price is shown only when
// both ends display the same.
func (r Range) Label() string {
	format := money.FormatPHP
	if r.Min.IsWholePeso() && r.Max.IsWholePeso() {
		format = money.FormatPHPCompact
	}
	if r.Min.Round().Equal(r.Max.Round()) {
		return format(r.Min)
	}
	return format(r.Min) + " – " + format(r.Max)
}

// PriceRange evaluates EffectivePrice for every option. Products without
// options collapse to the product-level quote.
func PriceRange(p product.Product, now time.Time) Range {
	var (
		r    Range
		seen bool
	)
	for _, v := range p.Variations {
		for i := range v.Options {
			unit := EffectivePrice(p, &v.Options[i], now).UnitPrice
			if !seen {
				r = Range{Min: unit, Max: unit}
				seen = true
				continue
			}
			r.Min = money.Min(r.Min, unit)
			r.Max = money.Max(r.Max, unit)
		}
	}
	if !seen {
		unit := EffectivePrice(p, nil, now).UnitPrice
		r = Range{Min: unit, Max: unit}
	}
	return r
}
