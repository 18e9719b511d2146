package pricing_test

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/noah-isme/storefront-engine/internal/money"
	"github.com/noah-isme/storefront-engine/internal/pricing"
	"github.com/noah-isme/storefront-engine/internal/product"
)

func TestProperty_ActiveDiscountNeverRaisesPrice(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("discounted unit price stays within [0, base]", prop.ForAll(
		func(amount int64, pct int) bool {
			base := money.FromInt(amount)
			p := withDiscount(product.Product{BasePrice: base}, pct, jan1, jan31)
			q := pricing.EffectivePrice(p, nil, jan10)
			return q.IsDiscountActive &&
				!q.UnitPrice.IsNegative() &&
				!q.UnitPrice.GreaterThan(base) &&
				q.WasPrice != nil && q.WasPrice.Equal(base)
		},
		gen.Int64Range(0, 10_000_000),
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_InactiveWindowLeavesBasePrice(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("outside the window the unit price is the base price", prop.ForAll(
		func(amount int64, pct int, offsetHours int) bool {
			base := money.FromInt(amount)
			p := withDiscount(product.Product{BasePrice: base}, pct, jan1, jan31)
			now := jan31.Add(time.Duration(offsetHours) * time.Hour)
			q := pricing.EffectivePrice(p, nil, now)
			return !q.IsDiscountActive && q.UnitPrice.Equal(base) && q.WasPrice == nil
		},
		gen.Int64Range(0, 1_000_000),
		gen.IntRange(1, 100),
		gen.IntRange(1, 24*365),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_RangeBoundsEveryOption(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every option price lies inside the product range", prop.ForAll(
		func(prices []int64, pct int) bool {
			opts := make([]product.Option, len(prices))
			for i, v := range prices {
				amount := money.FromInt(v)
				opts[i] = product.Option{ID: string(rune('a' + i%26)), Price: &amount}
			}
			p := withDiscount(product.Product{
				BasePrice:  money.FromInt(1),
				Variations: []product.Variation{{ID: "v", HasIndividualStock: true, Options: opts}},
			}, pct, jan1, jan31)

			r := pricing.PriceRange(p, jan10)
			if r.Min.GreaterThan(r.Max) {
				return false
			}
			for i := range opts {
				unit := pricing.EffectivePrice(p, &opts[i], jan10).UnitPrice
				if unit.LessThan(r.Min) || unit.GreaterThan(r.Max) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(5, gen.Int64Range(1, 100_000)),
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
