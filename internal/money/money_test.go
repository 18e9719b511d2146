package money_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-engine/internal/money"
)

func TestPercentOffKeepsPrecision(t *testing.T) {
	price := money.MustString("999.99")
	got := price.PercentOff(15)
	require.Equal(t, "849.9915", got.Decimal().String())
	require.Equal(t, "849.99", got.Round().String())
}

func TestPercentOffBounds(t *testing.T) {
	price := money.FromInt(1000)
	require.True(t, price.PercentOff(100).IsZero())
	require.True(t, price.PercentOff(0).Equal(price))
	require.True(t, price.PercentOff(150).IsZero())
}

func TestSubClampsAtZero(t *testing.T) {
	got := money.FromInt(10).Sub(money.FromInt(25))
	require.True(t, got.IsZero())
	require.False(t, got.IsNegative())
}

func TestMul(t *testing.T) {
	require.Equal(t, "2400.00", money.FromInt(800).Mul(3).String())
	require.True(t, money.FromInt(800).Mul(-1).IsZero())
}

func TestFormatPHP(t *testing.T) {
	cases := map[string]string{
		"0":          "₱0.00",
		"5":          "₱5.00",
		"1234.5":     "₱1,234.50",
		"1000000":    "₱1,000,000.00",
		"999.995":    "₱1,000.00",
		"123456.789": "₱123,456.79",
	}
	for in, want := range cases {
		require.Equal(t, want, money.FormatPHP(money.MustString(in)), in)
	}
}

func TestFormatPHPCompact(t *testing.T) {
	require.Equal(t, "₱800", money.FormatPHPCompact(money.FromInt(800)))
	require.Equal(t, "₱720", money.FormatPHPCompact(money.FromInt(800).PercentOff(10)))
	require.Equal(t, "₱1,234.50", money.FormatPHPCompact(money.MustString("1234.5")))
	require.Equal(t, "₱500", money.FormatPHPCompact(money.MustString("499.999")))
	require.Equal(t, "₱499.60", money.FormatPHPCompact(money.MustString("499.6")))
}

func TestFormatPHPPaddingAndSign(t *testing.T) {
	cases := map[string]string{
		"0.05":     "₱0.05",
		"0.5":      "₱0.50",
		"100":      "₱100.00",
		"1000.5":   "₱1,000.50",
		"100000":   "₱100,000.00",
		"-5":       "-₱5.00",
		"-1234.5":  "-₱1,234.50",
		"12345678": "₱12,345,678.00",
	}
	for in, want := range cases {
		require.Equal(t, want, money.FormatPHP(money.MustString(in)), in)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Price money.Money `json:"price"`
	}
	out, err := json.Marshal(wrapper{Price: money.MustString("12.5")})
	require.NoError(t, err)
	require.JSONEq(t, `{"price":"12.50"}`, string(out))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"price":1299.75}`), &w))
	require.Equal(t, "1299.75", w.Price.String())
	require.Error(t, json.Unmarshal([]byte(`{"price":"abc"}`), &w))
}
