package cart

import (
	"time"

	"github.com/noah-isme/storefront-engine/internal/inventory"
	"github.com/noah-isme/storefront-engine/internal/money"
	"github.com/noah-isme/storefront-engine/internal/pricing"
	"github.com/noah-isme/storefront-engine/internal/product"
)

// Line is one product/option pair in a buyer's cart.
type Line struct {
	ID       string          `json:"id"`
	Product  product.Product `json:"-"`
	OptionID string          `json:"option_id,omitempty"`
	Quantity int             `json:"quantity"`
}

// PricedLine is a line with its quote evaluated at aggregation time.
type PricedLine struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	OptionID    string          `json:"option_id,omitempty"`
	OptionLabel string          `json:"option_label,omitempty"`
	Quantity    int             `json:"quantity"`
	Available   int             `json:"available"`
	Quote       pricing.Quote   `json:"quote"`
	LineTotal   money.Money     `json:"line_total"`
	Selected    bool            `json:"selected"`
	Level       inventory.Level `json:"stock_level"`
}

// Group collects the lines of one shop.
type Group struct {
	ShopID           string       `json:"shop_id"`
	ShopName         string       `json:"shop_name,omitempty"`
	Lines            []PricedLine `json:"lines"`
	AllSelected      bool         `json:"all_selected"`
	SelectedSubtotal money.Money  `json:"selected_subtotal"`
}

// LineIDs lists the ids of every line in the group.
func (g Group) LineIDs() []string {
	ids := make([]string, len(g.Lines))
	for i, l := range g.Lines {
		ids[i] = l.ID
	}
	return ids
}

type Summary struct {
	Groups        []Group     `json:"groups"`
	SelectedTotal money.Money `json:"selected_total"`
	SelectedCount int         `json:"selected_count"`
}

// ByShop indexes groups by shop key.
func (s Summary) ByShop() map[string]Group {
	out := make(map[string]Group, len(s.Groups))
	for _, g := range s.Groups {
		out[g.ShopID] = g
	}
	return out
}

// Aggregate groups lines by shop in order of first appearance and totals the
// selected lines with prices evaluated at now. Lines whose option can no
// longer be resolved are kept but priced at the product level.
func Aggregate(lines []Line, selected Selection, now time.Time) Summary {
	summary := Summary{Groups: []Group{}}
	index := map[string]int{}

	for _, l := range lines {
		key := l.Product.ShopKey()
		gi, ok := index[key]
		if !ok {
			g := Group{ShopID: key, AllSelected: true}
			if l.Product.Shop != nil {
				g.ShopName = l.Product.Shop.Name
			}
			summary.Groups = append(summary.Groups, g)
			gi = len(summary.Groups) - 1
			index[key] = gi
		}
		group := &summary.Groups[gi]

		priced := price(l, now)
		priced.Selected = selected.Has(l.ID)
		group.Lines = append(group.Lines, priced)
		if !priced.Selected {
			group.AllSelected = false
			continue
		}
		group.SelectedSubtotal = group.SelectedSubtotal.Add(priced.LineTotal)
		summary.SelectedTotal = summary.SelectedTotal.Add(priced.LineTotal)
		summary.SelectedCount++
	}
	return summary
}

func price(l Line, now time.Time) PricedLine {
	pl := PricedLine{
		ID:          l.ID,
		ProductID:   l.Product.ID,
		ProductName: l.Product.Name,
		OptionID:    l.OptionID,
		Quantity:    l.Quantity,
	}
	opt, err := inventory.ResolveOption(l.Product, l.OptionID)
	if err != nil {
		opt = nil
	}
	if opt != nil {
		if v, _, ok := l.Product.FindOption(opt.ID); ok {
			pl.OptionLabel = opt.Label(v)
		}
	}
	if stock, err := inventory.ResolveStock(l.Product, l.OptionID); err == nil {
		pl.Available = stock.Available
		pl.Level = stock.Level()
	} else {
		pl.Level = inventory.LevelOutOfStock
	}
	pl.Quote = pricing.EffectivePrice(l.Product, opt, now)
	pl.LineTotal = pricing.Subtotal([]pricing.Item{{Qty: l.Quantity, UnitPrice: pl.Quote.UnitPrice}})
	return pl
}
