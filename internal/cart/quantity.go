package cart

import (
	"errors"
	"fmt"

	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/inventory"
)

// Increment returns quantity+1, refusing to exceed available stock.
func Increment(l Line) (int, error) {
	return SetQuantity(l, l.Quantity+1)
}

// Decrement returns quantity-1 with a floor of 1; removal is a separate call.
// A line on a product with variations needs a chosen option first.
func Decrement(l Line) (int, error) {
	if _, err := inventory.ResolveStock(l.Product, l.OptionID); err != nil {
		return 0, err
	}
	if l.Quantity <= 1 {
		return 0, common.ValidationError("quantity", "quantity cannot go below 1, remove the item instead")
	}
	return l.Quantity - 1, nil
}

// SetQuantity validates 1 ≤ qty ≤ available for the line's stock counter.
func SetQuantity(l Line, qty int) (int, error) {
	if qty < 1 {
		return 0, common.ValidationError("quantity", "quantity must be at least 1")
	}
	stock, err := inventory.ResolveStock(l.Product, l.OptionID)
	if err != nil {
		return 0, err
	}
	if qty > stock.Available {
		return 0, common.StockInsufficientError(qty, stock.Available)
	}
	return qty, nil
}

// CheckLine reports whether the line's current quantity is purchasable:
// an option is chosen where the product needs one and 1 ≤ quantity ≤ available.
// Errors carry the line id in their details.
func CheckLine(l Line) error {
	if _, err := SetQuantity(l, l.Quantity); err != nil {
		return withLine(l.ID, err)
	}
	return nil
}

func withLine(lineID string, err error) error {
	var appErr *common.AppError
	if !errors.As(err, &appErr) {
		return fmt.Errorf("cart line %s: %w", lineID, err)
	}
	out := *appErr
	out.Details = map[string]any{"line_id": lineID, "reason": appErr.Details}
	return &out
}
