package app

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-engine/internal/cart"
	"github.com/noah-isme/storefront-engine/internal/catalog"
	"github.com/noah-isme/storefront-engine/internal/config"
	"github.com/noah-isme/storefront-engine/internal/discount"
	"github.com/noah-isme/storefront-engine/internal/events"
	"github.com/noah-isme/storefront-engine/internal/inventory"
	"github.com/noah-isme/storefront-engine/internal/lock"
	"github.com/noah-isme/storefront-engine/internal/resilience"
	"github.com/noah-isme/storefront-engine/internal/store"
	"github.com/noah-isme/storefront-engine/internal/verify"
)

// Services holds the domain services shared by the API and the worker.
type Services struct {
	Store     *store.Store
	Events    *events.Bus
	Catalog   *catalog.Service
	Inventory *inventory.Service
	Discounts *discount.Service
	Cart      *cart.Service
}

// BuildServices wires the domain services on top of an open pool and Redis
// client. now may be nil.
func BuildServices(cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client, logger *zerolog.Logger, now func() time.Time) (*Services, error) {
	if cfg == nil || rdb == nil {
		return nil, errors.New("app: config and redis client are required")
	}
	if now == nil {
		now = time.Now
	}
	st := store.New(pool)
	bus := &events.Bus{
		Store:     st,
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
		Now:       now,
	}

	catalogSvc, err := catalog.NewService(catalog.ServiceConfig{
		Products: st,
		Cache: catalog.NewCache(rdb, cfg.CatalogCacheTTL).
			WithBreaker(resilience.NewBreaker("catalog_cache", 5, 0.5, 10*time.Second).WithLogger(logger)),
		Now:      now,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	inventorySvc := &inventory.Service{
		Store: st,
		Locker: lock.Locker{
			R:            rdb,
			RetryBackoff: cfg.LockRetryBackoff,
			MaxWait:      cfg.LockMaxWait,
		},
		Codes:   verify.Codes{R: rdb, TTL: cfg.VerificationCodeTTL, Now: now},
		Events:  bus,
		Cache:   catalogSvc,
		LockTTL: cfg.StockLockTTL,
		Now:     now,
		Logger:  logger,
	}

	discountSvc, err := discount.NewService(discount.ServiceConfig{
		Store:   st,
		Events:  bus,
		Cache:   catalogSvc,
		Now:     now,
		Logger:  logger,
		PerPage: cfg.DiscountPageSize,
	})
	if err != nil {
		return nil, err
	}

	return &Services{
		Store:     st,
		Events:    bus,
		Catalog:   catalogSvc,
		Inventory: inventorySvc,
		Discounts: discountSvc,
		Cart:      &cart.Service{Products: catalogSvc, Now: now},
	}, nil
}
