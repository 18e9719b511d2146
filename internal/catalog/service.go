package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-engine/internal/cache"
	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/inventory"
	"github.com/noah-isme/storefront-engine/internal/money"
	"github.com/noah-isme/storefront-engine/internal/obs"
	"github.com/noah-isme/storefront-engine/internal/pricing"
	"github.com/noah-isme/storefront-engine/internal/product"
)

type productLoader interface {
	GetProduct(ctx context.Context, id string) (product.Product, error)
}

// Service serves product snapshots from Redis and prices them per request.
// Only the snapshot is cached; quotes depend on the clock.
type Service struct {
	products productLoader
	cache    *Cache
	now      func() time.Time
	logger   *zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Products productLoader
	Cache    *Cache
	Now      func() time.Time
	Logger   *zerolog.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Products == nil {
		return nil, errors.New("catalog product loader is required")
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
	return &Service{products: cfg.Products, cache: cfg.Cache, now: now, logger: logger}, nil
}

// GetProduct returns the product snapshot, filling the cache on a miss.
func (s *Service) GetProduct(ctx context.Context, id string) (product.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return product.Product{}, common.ValidationError("id", "product id is required")
	}
	var p product.Product
	hit, err := s.cache.GetJSON(ctx, cache.KeyProduct(id), &p)
	if err != nil {
		s.logger.Warn().Err(err).Str("product_id", id).Msg("catalog cache read failed")
	}
	if hit {
		obs.Inc(obs.CatalogCacheTotal, "hit")
		return p, nil
	}
	obs.Inc(obs.CatalogCacheTotal, "miss")
	gen, genErr := s.cache.Generation(ctx, id)
	if genErr != nil && !errors.Is(genErr, errCacheDisabled) {
		s.logger.Warn().Err(genErr).Str("product_id", id).Msg("catalog cache generation read failed")
	}
	p, err = s.products.GetProduct(ctx, id)
	if err != nil {
		return product.Product{}, err
	}
	if genErr != nil {
		return p, nil
	}
	stored, err := s.cache.FillProduct(ctx, id, gen, p)
	if err != nil {
		s.logger.Warn().Err(err).Str("product_id", id).Msg("catalog cache write failed")
	} else if !stored {
		s.logger.Debug().Str("product_id", id).Msg("catalog snapshot invalidated during load; not cached")
	}
	return p, nil
}

// Invalidate drops cached snapshots; mutating services call it.
func (s *Service) Invalidate(ctx context.Context, ids ...string) error {
	return s.cache.Invalidate(ctx, ids...)
}

// OptionDetail is one purchasable option with its own quote and stock.
type OptionDetail struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	Value     string          `json:"value"`
	SKU       string          `json:"sku,omitempty"`
	Price     pricing.Quote   `json:"price"`
	Display   string          `json:"display_price"`
	WasLabel  string          `json:"display_was_price,omitempty"`
	Available int             `json:"available"`
	Level     inventory.Level `json:"stock_level"`
}

type VariationDetail struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	HasIndividualStock bool           `json:"has_individual_stock"`
	Options            []OptionDetail `json:"options"`
}

// ProductDetail is the buyer-facing product payload.
type ProductDetail struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Shop       *product.Shop     `json:"shop,omitempty"`
	Price      pricing.Quote     `json:"price"`
	Badge      string            `json:"badge,omitempty"`
	PriceRange pricing.Range     `json:"price_range"`
	RangeLabel string            `json:"price_range_label"`
	Available  *int              `json:"available,omitempty"`
	Level      inventory.Level   `json:"stock_level,omitempty"`
	Variations []VariationDetail `json:"variations"`
	TotalSales int64             `json:"total_sales"`
}

// Detail builds the product page. Draft and archived products are not found.
func (s *Service) Detail(ctx context.Context, id string) (ProductDetail, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return ProductDetail{}, err
	}
	if !p.Visible() {
		return ProductDetail{}, common.NotFoundError("product")
	}
	now := s.now().UTC()
	quote := pricing.EffectivePrice(p, nil, now)
	rng := pricing.PriceRange(p, now)
	detail := ProductDetail{
		ID:         p.ID,
		Name:       p.Name,
		Shop:       p.Shop,
		Price:      quote,
		Badge:      quote.Badge(),
		PriceRange: rng,
		RangeLabel: rng.Label(),
		Variations: make([]VariationDetail, 0, len(p.Variations)),
		TotalSales: p.TotalSales,
	}
	if !p.HasVariations() {
		if stock, err := inventory.ResolveStock(p, ""); err == nil {
			available := stock.Available
			detail.Available = &available
			detail.Level = stock.Level()
		}
	}
	for _, v := range p.Variations {
		vd := VariationDetail{ID: v.ID, Name: v.Name, HasIndividualStock: v.HasIndividualStock, Options: make([]OptionDetail, 0, len(v.Options))}
		for i := range v.Options {
			o := v.Options[i]
			q := pricing.EffectivePrice(p, &o, now)
			od := OptionDetail{
				ID:      o.ID,
				Label:   o.Label(v),
				Value:   o.Value,
				SKU:     o.SKU,
				Price:   q,
				Display: money.FormatPHP(q.UnitPrice.Round()),
			}
			if q.WasPrice != nil {
				od.WasLabel = money.FormatPHP(q.WasPrice.Round())
			}
			if stock, err := inventory.ResolveStock(p, o.ID); err == nil {
				od.Available = stock.Available
				od.Level = stock.Level()
			}
			vd.Options = append(vd.Options, od)
		}
		detail.Variations = append(detail.Variations, vd)
	}
	return detail, nil
}
