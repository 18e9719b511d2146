package discount

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/events"
	"github.com/noah-isme/storefront-engine/internal/money"
	"github.com/noah-isme/storefront-engine/internal/obs"
	"github.com/noah-isme/storefront-engine/internal/pricing"
	"github.com/noah-isme/storefront-engine/internal/product"
)

// Store persists windows and their product attachments. Mutations return the
// ids of products whose discount fields changed.
type Store interface {
	CreateDiscount(ctx context.Context, w Window) (Window, error)
	UpdateDiscount(ctx context.Context, sellerID, name string, w Window) (Window, []string, error)
	DeleteDiscount(ctx context.Context, sellerID, name string) ([]string, error)
	ListDiscounts(ctx context.Context, sellerID string) ([]Window, error)
	// DetachExpired clears windows ended before now. An empty sellerID sweeps
	// every seller.
	DetachExpired(ctx context.Context, sellerID string, now time.Time) (DetachResult, error)
	ListDiscountable(ctx context.Context, q DiscountableQuery) ([]product.Product, int, error)
}

type DetachResult struct {
	ProductIDs []string
	Windows    int
}

type DiscountableQuery struct {
	SellerID string
	Search   string
	Limit    int
	Offset   int
}

type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

type Invalidator interface {
	Invalidate(ctx context.Context, productIDs ...string) error
}

// Service manages seller discount windows.
type Service struct {
	store   Store
	events  Emitter
	cache   Invalidator
	now     func() time.Time
	logger  *zerolog.Logger
	perPage int
}

type ServiceConfig struct {
	Store   Store
	Events  Emitter
	Cache   Invalidator
	Now     func() time.Time
	Logger  *zerolog.Logger
	PerPage int
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("discount store is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	return &Service{store: cfg.Store, events: cfg.Events, cache: cfg.Cache, now: now, logger: logger, perPage: perPage}, nil
}

func (s *Service) clock() time.Time { return s.now().UTC() }

// Create validates and stores a new window, attaching it to its products.
func (s *Service) Create(ctx context.Context, sellerID string, w Window) (Window, error) {
	w = w.Normalize()
	w.SellerID = sellerID
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	created, err := s.store.CreateDiscount(ctx, w)
	obs.Inc(obs.DiscountOpsTotal, "create", obs.Result(err))
	if err != nil {
		return Window{}, err
	}
	s.invalidate(ctx, created.ProductIDs)
	s.emit(ctx, events.TopicDiscountCreated, sellerID, created)
	return created, nil
}

// Update replaces the window named name. Products dropped from the window are
// detached; the new name must stay unique for the seller.
func (s *Service) Update(ctx context.Context, sellerID, name string, w Window) (Window, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Window{}, common.ValidationError("discount_name", "discount name is required")
	}
	w = w.Normalize()
	w.SellerID = sellerID
	if w.Name == "" {
		w.Name = name
	}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	updated, affected, err := s.store.UpdateDiscount(ctx, sellerID, name, w)
	obs.Inc(obs.DiscountOpsTotal, "update", obs.Result(err))
	if err != nil {
		return Window{}, err
	}
	s.invalidate(ctx, affected)
	s.emit(ctx, events.TopicDiscountUpdated, sellerID, updated)
	return updated, nil
}

// Delete removes the window and detaches it from its products. Products
// themselves are never deleted.
func (s *Service) Delete(ctx context.Context, sellerID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return common.ValidationError("discount_name", "discount name is required")
	}
	affected, err := s.store.DeleteDiscount(ctx, sellerID, name)
	obs.Inc(obs.DiscountOpsTotal, "delete", obs.Result(err))
	if err != nil {
		return err
	}
	s.invalidate(ctx, affected)
	s.emit(ctx, events.TopicDiscountDeleted, sellerID, map[string]any{"discount_name": name, "product_ids": affected})
	return nil
}

// List returns the seller's active and pending windows.
func (s *Service) List(ctx context.Context, sellerID string) (Buckets, error) {
	windows, err := s.store.ListDiscounts(ctx, sellerID)
	if err != nil {
		return Buckets{}, err
	}
	return Bucket(windows, s.clock()), nil
}

type CleanupResult struct {
	Count   int `json:"products_cleaned"`
	Windows int `json:"windows_removed"`
}

// Cleanup detaches expired windows. Running it twice in a row reports zero
// the second time.
func (s *Service) Cleanup(ctx context.Context, sellerID string) (CleanupResult, error) {
	res, err := s.store.DetachExpired(ctx, sellerID, s.clock())
	obs.Inc(obs.DiscountOpsTotal, "cleanup", obs.Result(err))
	if err != nil {
		return CleanupResult{}, err
	}
	if obs.DiscountCleanupProducts != nil {
		obs.DiscountCleanupProducts.Add(float64(len(res.ProductIDs)))
	}
	out := CleanupResult{Count: len(res.ProductIDs), Windows: res.Windows}
	if out.Count == 0 && out.Windows == 0 {
		return out, nil
	}
	s.invalidate(ctx, res.ProductIDs)
	aggregate := sellerID
	if aggregate == "" {
		aggregate = "all"
	}
	s.emit(ctx, events.TopicDiscountsCleaned, aggregate, out)
	s.logger.Info().Str("seller_id", sellerID).Int("products", out.Count).Int("windows", out.Windows).Msg("expired discounts cleaned")
	return out, nil
}

// DiscountableProduct is a picker row with the price a buyer would pay now.
type DiscountableProduct struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Status           string       `json:"status"`
	Price            money.Money  `json:"price"`
	EffectivePrice   money.Money  `json:"effective_price"`
	DiscountName     string       `json:"discount_name,omitempty"`
	DiscountPercent  *int         `json:"discount_percentage,omitempty"`
	IsDiscountActive bool         `json:"is_discount_active"`
	PriceLabel       string       `json:"price_label"`
	WasPrice         *money.Money `json:"was_price,omitempty"`
}

type DiscountablePage struct {
	Items      []DiscountableProduct `json:"items"`
	Pagination common.Pagination     `json:"pagination"`
}

// Discountable pages through the seller's products for the discount picker.
func (s *Service) Discountable(ctx context.Context, sellerID string, page, perPage int, search string) (DiscountablePage, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = s.perPage
	}
	pg := common.NewPagination(page, perPage, 0)
	products, total, err := s.store.ListDiscountable(ctx, DiscountableQuery{
		SellerID: sellerID,
		Search:   strings.TrimSpace(search),
		Limit:    perPage,
		Offset:   pg.Offset(),
	})
	if err != nil {
		return DiscountablePage{}, err
	}
	now := s.clock()
	items := make([]DiscountableProduct, 0, len(products))
	for _, p := range products {
		q := pricing.EffectivePrice(p, nil, now)
		items = append(items, DiscountableProduct{
			ID:               p.ID,
			Name:             p.Name,
			Status:           string(p.Status),
			Price:            p.BasePrice,
			EffectivePrice:   q.UnitPrice,
			DiscountName:     p.DiscountName,
			DiscountPercent:  q.DiscountPercent,
			IsDiscountActive: q.IsDiscountActive,
			PriceLabel:       pricing.PriceRange(p, now).Label(),
			WasPrice:         q.WasPrice,
		})
	}
	return DiscountablePage{Items: items, Pagination: common.NewPagination(page, perPage, total)}, nil
}

func (s *Service) emit(ctx context.Context, topic, aggregateID string, payload any) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Emit(ctx, topic, aggregateID, payload); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("emit event failed")
	}
}

func (s *Service) invalidate(ctx context.Context, ids []string) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn().Err(err).Strs("product_ids", ids).Msg("invalidate catalog cache failed")
	}
}
