package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol is the display prefix for the marketplace currency (PHP).
const Symbol = "₱"

// Places is the number of minor-unit digits used when rounding for display.
const Places int32 = 2

var hundred = decimal.NewFromInt(100)

// Money is a non-negative fixed-point amount. The zero value is ₱0.
type Money struct {
	d decimal.Decimal
}

func Zero() Money { return Money{} }

// FromInt builds an amount of whole pesos.
func FromInt(v int64) Money { return Money{d: decimal.NewFromInt(v)} }

// FromDecimal wraps d as-is. Negative input is kept so callers can validate it.
func FromDecimal(d decimal.Decimal) Money { return Money{d: d} }

// FromString parses a decimal literal such as "1299.50".
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustString is FromString for literals known to be valid.
func MustString(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) IsZero() bool { return m.d.IsZero() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }
func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }
func (m Money) GreaterOrEqual(o Money) bool { return m.d.GreaterThanOrEqual(o.d) }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

// Sub subtracts o, clamping the result at zero.
func (m Money) Sub(o Money) Money { return clamp(m.d.Sub(o.d)) }

// Mul multiplies by a quantity. Negative quantities yield zero.
func (m Money) Mul(qty int64) Money { return clamp(m.d.Mul(decimal.NewFromInt(qty))) }

// PercentOff returns m × (100 − pct) / 100 at full precision.
// pct is clamped into [0, 100].
func (m Money) PercentOff(pct int) Money {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	factor := decimal.NewFromInt(int64(100 - pct))
	return clamp(m.d.Mul(factor).Div(hundred))
}

// Round rounds half away from zero to two decimal places.
func (m Money) Round() Money { return Money{d: m.d.Round(Places)} }

// String renders the rounded amount with two decimals and no symbol.
func (m Money) String() string { return m.d.StringFixed(Places) }

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both "12.50" and 12.5.
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*m = Money{}
		return nil
	}
	raw = strings.Trim(raw, `"`)
	parsed, err := FromString(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func Min(a, b Money) Money {
	if a.LessThan(b) {
		return a
	}
	return b
}

func Max(a, b Money) Money {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func clamp(d decimal.Decimal) Money {
	if d.IsNegative() {
		return Money{}
	}
	return Money{d: d}
}
