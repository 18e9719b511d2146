package cart

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/product"
)

// ProductSource loads the product snapshot a line refers to.
type ProductSource interface {
	GetProduct(ctx context.Context, id string) (product.Product, error)
}

// Service prices buyer carts against current catalog data.
type Service struct {
	Products ProductSource
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

type LineInput struct {
	ID        string `json:"id" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
	OptionID  string `json:"option_id,omitempty"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

type SummaryRequest struct {
	Lines    []LineInput `json:"lines" validate:"dive"`
	Selected []string    `json:"selected"`
}

// Summarize resolves every line and aggregates by shop. Products a buyer can
// no longer see are reported as not found; a line without a required option
// or above available stock fails the whole summary.
func (s *Service) Summarize(ctx context.Context, req SummaryRequest) (Summary, error) {
	if s == nil || s.Products == nil {
		return Summary{}, errors.New("cart service not configured")
	}
	if err := common.ValidateStruct(req); err != nil {
		return Summary{}, err
	}
	lines, err := s.resolve(ctx, req.Lines)
	if err != nil {
		return Summary{}, err
	}
	for _, l := range lines {
		if err := CheckLine(l); err != nil {
			return Summary{}, err
		}
	}
	return Aggregate(lines, NewSelection(req.Selected...), s.now()), nil
}

type QuantityAction string

const (
	QuantityIncrement QuantityAction = "increment"
	QuantityDecrement QuantityAction = "decrement"
	QuantitySet       QuantityAction = "set"
)

type QuantityRequest struct {
	ProductID string         `json:"product_id" validate:"required"`
	OptionID  string         `json:"option_id,omitempty"`
	Quantity  int            `json:"quantity" validate:"min=0"`
	Action    QuantityAction `json:"action" validate:"required,oneof=increment decrement set"`
	Target    int            `json:"target,omitempty"`
}

// ChangeQuantity applies a stepper action and returns the new quantity.
func (s *Service) ChangeQuantity(ctx context.Context, lineID string, req QuantityRequest) (int, error) {
	if s == nil || s.Products == nil {
		return 0, errors.New("cart service not configured")
	}
	if err := common.ValidateStruct(req); err != nil {
		return 0, err
	}
	lines, err := s.resolve(ctx, []LineInput{{ID: lineID, ProductID: req.ProductID, OptionID: req.OptionID, Quantity: req.Quantity}})
	if err != nil {
		return 0, err
	}
	line := lines[0]
	switch req.Action {
	case QuantityIncrement:
		return Increment(line)
	case QuantityDecrement:
		return Decrement(line)
	default:
		return SetQuantity(line, req.Target)
	}
}

func (s *Service) resolve(ctx context.Context, inputs []LineInput) ([]Line, error) {
	cache := make(map[string]product.Product, len(inputs))
	lines := make([]Line, 0, len(inputs))
	for _, in := range inputs {
		p, ok := cache[in.ProductID]
		if !ok {
			loaded, err := s.Products.GetProduct(ctx, in.ProductID)
			if err != nil {
				return nil, err
			}
			if !loaded.Visible() {
				return nil, common.NotFoundError("product")
			}
			p = loaded
			cache[in.ProductID] = p
		}
		lines = append(lines, Line{ID: in.ID, Product: p, OptionID: in.OptionID, Quantity: in.Quantity})
	}
	return lines, nil
}
