package money

import "strings"

// FormatPHP renders m as "₱1,234.50". A negative amount keeps its sign in
// front of the symbol ("-₱5.00").
func FormatPHP(m Money) string {
	return withSymbol(m.d.StringFixed(Places))
}

// FormatPHPCompact is FormatPHP without the ".00" of a whole-peso amount:
// "₱800", "₱799.50". The amount is rounded to two decimals first.
func FormatPHPCompact(m Money) string {
	if m.IsWholePeso() {
		return withSymbol(m.d.Round(Places).StringFixed(0))
	}
	return FormatPHP(m)
}

// IsWholePeso reports whether m has no centavos once rounded for display.
func (m Money) IsWholePeso() bool {
	r := m.d.Round(Places)
	return r.Equal(r.Truncate(0))
}

func withSymbol(s string) string {
	if rest, neg := strings.CutPrefix(s, "-"); neg {
		return "-" + Symbol + group(rest)
	}
	return Symbol + group(s)
}

// group inserts thousands separators into an unsigned decimal string.
func group(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
