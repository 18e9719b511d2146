package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/events"
	"github.com/noah-isme/storefront-engine/internal/lock"
	"github.com/noah-isme/storefront-engine/internal/money"
	"github.com/noah-isme/storefront-engine/internal/obs"
	"github.com/noah-isme/storefront-engine/internal/pricing"
	"github.com/noah-isme/storefront-engine/internal/product"
	"github.com/noah-isme/storefront-engine/internal/verify"
)

// Store is the persistence surface the inventory service needs.
// Decrement* must be conditional on the counter covering qty and return
// common.ErrStockInsufficient (wrapped) without writing otherwise.
type Store interface {
	GetProduct(ctx context.Context, id string) (product.Product, error)
	UpdateProductStatus(ctx context.Context, id string, from, to product.Status) error
	DecrementProductStock(ctx context.Context, productID string, qty int) (int, error)
	DecrementVariationStock(ctx context.Context, variationID string, qty int) (int, error)
	DecrementOptionStock(ctx context.Context, optionID string, qty int) (int, error)
	RecordSale(ctx context.Context, productID string, qty int, revenue money.Money) error
}

type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

type Verifier interface {
	Issue(ctx context.Context, subject, action string) (verify.Issued, error)
	Verify(ctx context.Context, subject, action, code string) error
}

type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// Invalidator drops cached product snapshots after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context, productIDs ...string) error
}

// Service owns product lifecycle and stock mutations.
type Service struct {
	Store   Store
	Locker  Locker
	Codes   Verifier
	Events  Emitter
	Cache   Invalidator
	LockTTL time.Duration
	Now     func() time.Time
	Logger  *zerolog.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) lockTTL() time.Duration {
	if s.LockTTL > 0 {
		return s.LockTTL
	}
	return 5 * time.Second
}

func (s *Service) log() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

// sellerProduct loads a product and hides it from other sellers.
func (s *Service) sellerProduct(ctx context.Context, sellerID, productID string) (product.Product, error) {
	p, err := s.Store.GetProduct(ctx, productID)
	if err != nil {
		return product.Product{}, err
	}
	if sellerID != "" && p.SellerID != sellerID {
		return product.Product{}, common.NotFoundError("product")
	}
	return p, nil
}

// IssueVerificationCode issues a fresh code for archive or unarchive after
// checking the product is in a state the action applies to.
func (s *Service) IssueVerificationCode(ctx context.Context, sellerID, productID string, action Action) (verify.Issued, error) {
	if !action.RequiresVerification() {
		return verify.Issued{}, common.ValidationError("action", "action must be archive or unarchive")
	}
	p, err := s.sellerProduct(ctx, sellerID, productID)
	if err != nil {
		return verify.Issued{}, err
	}
	if _, err := Transition(p.Status, TargetFor(action)); err != nil {
		return verify.Issued{}, err
	}
	issued, err := s.Codes.Issue(ctx, p.ID, string(action))
	obs.Inc(obs.VerificationTotal, string(action), "issued_"+obs.Result(err))
	if err != nil {
		return verify.Issued{}, err
	}
	return issued, nil
}

// SetProductStatus moves a product to target. Archive and unarchive consume a
// verification code; on any failure the status is left unchanged.
func (s *Service) SetProductStatus(ctx context.Context, sellerID, productID string, target product.Status, code string) (product.Product, error) {
	p, err := s.sellerProduct(ctx, sellerID, productID)
	if err != nil {
		return product.Product{}, err
	}
	action, err := Transition(p.Status, target)
	if err != nil {
		obs.Inc(obs.StatusTransitionTotal, string(target), "rejected")
		return product.Product{}, err
	}
	if action.RequiresVerification() {
		if strings.TrimSpace(code) == "" {
			return product.Product{}, common.ValidationError("verification_code", "verification code is required")
		}
		verr := s.Codes.Verify(ctx, p.ID, string(action), code)
		obs.Inc(obs.VerificationTotal, string(action), "verify_"+obs.Result(verr))
		if verr != nil {
			return product.Product{}, verr
		}
	}
	if err := s.Store.UpdateProductStatus(ctx, p.ID, p.Status, target); err != nil {
		obs.Inc(obs.StatusTransitionTotal, string(action), "error")
		return product.Product{}, fmt.Errorf("update status: %w", err)
	}
	obs.Inc(obs.StatusTransitionTotal, string(action), "ok")

	from := p.Status
	p.Status = target
	p.UpdatedAt = s.now()
	s.invalidate(ctx, p.ID)
	s.emit(ctx, topicFor(action), p.ID, map[string]any{
		"seller_id": p.SellerID,
		"from":      from,
		"to":        target,
		"visible":   p.Visible(),
	})
	s.log().Info().Str("product_id", p.ID).Str("from", string(from)).Str("to", string(target)).Msg("product status changed")
	return p, nil
}

// DecrementRequest describes a checkout line consuming stock.
type DecrementRequest struct {
	ProductID string       `json:"product_id" validate:"required"`
	OptionID  string       `json:"option_id,omitempty"`
	Quantity  int          `json:"quantity" validate:"required,min=1"`
	UnitPrice *money.Money `json:"unit_price,omitempty"`
}

type DecrementResult struct {
	ProductID string `json:"product_id"`
	OptionID  string `json:"option_id,omitempty"`
	Scope     Scope  `json:"scope"`
	Remaining int    `json:"remaining"`
	Level     Level  `json:"level"`
}

// DecrementStock atomically reduces the governing counter by qty. The Redis
// lock serialises concurrent checkouts per counter; the conditional update in
// the store is the final guard.
func (s *Service) DecrementStock(ctx context.Context, req DecrementRequest) (DecrementResult, error) {
	if req.Quantity < 1 {
		return DecrementResult{}, common.ValidationError("quantity", "quantity must be at least 1")
	}
	p, err := s.Store.GetProduct(ctx, req.ProductID)
	if err != nil {
		return DecrementResult{}, err
	}
	stock, err := ResolveStock(p, req.OptionID)
	if err != nil {
		return DecrementResult{}, err
	}

	var remaining int
	run := func(ctx context.Context) error {
		var derr error
		switch stock.Scope {
		case ScopeOption:
			remaining, derr = s.Store.DecrementOptionStock(ctx, stock.TargetID, req.Quantity)
		case ScopeVariation:
			remaining, derr = s.Store.DecrementVariationStock(ctx, stock.TargetID, req.Quantity)
		default:
			remaining, derr = s.Store.DecrementProductStock(ctx, stock.TargetID, req.Quantity)
		}
		return derr
	}
	if s.Locker != nil {
		err = s.Locker.WithLock(ctx, lock.StockKey(string(stock.Scope), stock.TargetID), s.lockTTL(), run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		if errors.Is(err, common.ErrStockInsufficient) {
			obs.Inc(obs.StockDecrementTotal, string(stock.Scope), "insufficient")
			var appErr *common.AppError
			if errors.As(err, &appErr) {
				return DecrementResult{}, appErr
			}
			return DecrementResult{}, common.StockInsufficientError(req.Quantity, stock.Available)
		}
		obs.Inc(obs.StockDecrementTotal, string(stock.Scope), "error")
		return DecrementResult{}, fmt.Errorf("decrement stock: %w", err)
	}
	obs.Inc(obs.StockDecrementTotal, string(stock.Scope), "ok")

	unit := s.unitPrice(p, req)
	if err := s.Store.RecordSale(ctx, p.ID, req.Quantity, unit.Mul(int64(req.Quantity))); err != nil {
		s.log().Warn().Err(err).Str("product_id", p.ID).Msg("record sale failed")
	}

	level := StockLevel(remaining, stock.LowStockAlert)
	before := stock.Level()
	if level != before {
		payload := map[string]any{
			"product_id": p.ID,
			"option_id":  req.OptionID,
			"scope":      stock.Scope,
			"remaining":  remaining,
			"threshold":  stock.LowStockAlert,
		}
		switch level {
		case LevelOutOfStock:
			s.emit(ctx, events.TopicInventoryOutOfStock, p.ID, payload)
		case LevelLowStock:
			s.emit(ctx, events.TopicInventoryLowStock, p.ID, payload)
		}
	}
	s.invalidate(ctx, p.ID)

	return DecrementResult{
		ProductID: p.ID,
		OptionID:  req.OptionID,
		Scope:     stock.Scope,
		Remaining: remaining,
		Level:     level,
	}, nil
}

// unitPrice prefers the price the buyer was charged, else the current quote.
func (s *Service) unitPrice(p product.Product, req DecrementRequest) money.Money {
	if req.UnitPrice != nil && !req.UnitPrice.IsNegative() {
		return *req.UnitPrice
	}
	opt, err := ResolveOption(p, req.OptionID)
	if err != nil {
		return p.BasePrice
	}
	return pricing.EffectivePrice(p, opt, s.now()).UnitPrice
}

func (s *Service) emit(ctx context.Context, topic, aggregateID string, payload any) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(ctx, topic, aggregateID, payload); err != nil {
		s.log().Warn().Err(err).Str("topic", topic).Msg("emit event failed")
	}
}

func (s *Service) invalidate(ctx context.Context, ids ...string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, ids...); err != nil {
		s.log().Warn().Err(err).Strs("product_ids", ids).Msg("invalidate catalog cache failed")
	}
}

func topicFor(a Action) string {
	switch a {
	case ActionPublish:
		return events.TopicProductPublished
	case ActionArchive:
		return events.TopicProductArchived
	case ActionUnarchive:
		return events.TopicProductUnarchived
	default:
		return events.TopicProductDrafted
	}
}
