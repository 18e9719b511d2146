package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/events"
	"github.com/noah-isme/storefront-engine/internal/inventory"
	"github.com/noah-isme/storefront-engine/internal/lock"
	"github.com/noah-isme/storefront-engine/internal/money"
	"github.com/noah-isme/storefront-engine/internal/product"
	"github.com/noah-isme/storefront-engine/internal/verify"
)

type fakeStore struct {
	mu       sync.Mutex
	products map[string]product.Product
	sales    map[string]int
	revenue  map[string]money.Money
}

func newFakeStore(ps ...product.Product) *fakeStore {
	s := &fakeStore{products: map[string]product.Product{}, sales: map[string]int{}, revenue: map[string]money.Money{}}
	for _, p := range ps {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeStore) GetProduct(_ context.Context, id string) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return product.Product{}, common.NotFoundError("product")
	}
	return p, nil
}

func (s *fakeStore) UpdateProductStatus(_ context.Context, id string, from, to product.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	if p.Status != from {
		return common.InvalidTransitionError(string(p.Status), string(to))
	}
	p.Status = to
	s.products[id] = p
	return nil
}

func (s *fakeStore) DecrementProductStock(_ context.Context, id string, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	if p.Quantity < qty {
		return 0, common.StockInsufficientError(qty, p.Quantity)
	}
	p.Quantity -= qty
	s.products[id] = p
	return p.Quantity, nil
}

func (s *fakeStore) DecrementVariationStock(_ context.Context, variationID string, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.products {
		for i := range p.Variations {
			if p.Variations[i].ID != variationID {
				continue
			}
			if p.Variations[i].Quantity < qty {
				return 0, common.StockInsufficientError(qty, p.Variations[i].Quantity)
			}
			p.Variations[i].Quantity -= qty
			s.products[id] = p
			return p.Variations[i].Quantity, nil
		}
	}
	return 0, common.NotFoundError("variation")
}

func (s *fakeStore) DecrementOptionStock(_ context.Context, optionID string, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.products {
		for i := range p.Variations {
			for j := range p.Variations[i].Options {
				o := &p.Variations[i].Options[j]
				if o.ID != optionID {
					continue
				}
				if o.Stock < qty {
					return 0, common.StockInsufficientError(qty, o.Stock)
				}
				o.Stock -= qty
				s.products[id] = p
				return o.Stock, nil
			}
		}
	}
	return 0, common.NotFoundError("option")
}

func (s *fakeStore) RecordSale(_ context.Context, id string, qty int, revenue money.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales[id] += qty
	s.revenue[id] = s.revenue[id].Add(revenue)
	return nil
}

type captureEvents struct {
	mu     sync.Mutex
	topics []string
}

func (c *captureEvents) Emit(_ context.Context, topic, aggregateID string, _ any) (events.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	return events.Event{Topic: topic, AggregateID: aggregateID}, nil
}

type captureCache struct {
	ids []string
}

func (c *captureCache) Invalidate(_ context.Context, ids ...string) error {
	c.ids = append(c.ids, ids...)
	return nil
}

func newService(t *testing.T, store *fakeStore) (*inventory.Service, *captureEvents, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ev := &captureEvents{}
	svc := &inventory.Service{
		Store:  store,
		Locker: lock.Locker{R: client, RetryBackoff: time.Millisecond},
		Codes:  verify.Codes{R: client},
		Events: ev,
		Cache:  &captureCache{},
	}
	return svc, ev, mr
}

func TestArchiveWithVerificationCode(t *testing.T) {
	store := newFakeStore(product.Product{ID: "p1", SellerID: "seller-1", Status: product.StatusActive, BasePrice: money.FromInt(100), Quantity: 4})
	svc, ev, _ := newService(t, store)
	ctx := context.Background()

	issued, err := svc.IssueVerificationCode(ctx, "seller-1", "p1", inventory.ActionArchive)
	require.NoError(t, err)
	require.Len(t, issued.Code, verify.CodeLength)

	p, err := svc.SetProductStatus(ctx, "seller-1", "p1", product.StatusArchived, issued.Code)
	require.NoError(t, err)
	require.Equal(t, product.StatusArchived, p.Status)
	require.False(t, p.Visible())
	require.Equal(t, []string{events.TopicProductArchived}, ev.topics)

	stored, _ := store.GetProduct(ctx, "p1")
	require.Equal(t, product.StatusArchived, stored.Status)
}

func TestArchiveWithWrongCodeLeavesStatus(t *testing.T) {
	store := newFakeStore(product.Product{ID: "p1", SellerID: "seller-1", Status: product.StatusActive})
	svc, _, _ := newService(t, store)
	ctx := context.Background()

	issued, err := svc.IssueVerificationCode(ctx, "seller-1", "p1", inventory.ActionArchive)
	require.NoError(t, err)
	wrong := "000000"
	if issued.Code == wrong {
		wrong = "999999"
	}

	_, err = svc.SetProductStatus(ctx, "seller-1", "p1", product.StatusArchived, wrong)
	require.ErrorIs(t, err, common.ErrVerificationMismatch)

	stored, _ := store.GetProduct(ctx, "p1")
	require.Equal(t, product.StatusActive, stored.Status)

	_, err = svc.SetProductStatus(ctx, "seller-1", "p1", product.StatusArchived, issued.Code)
	require.ErrorIs(t, err, common.ErrVerificationExpired)
}

func TestArchiveWithExpiredCode(t *testing.T) {
	store := newFakeStore(product.Product{ID: "p1", SellerID: "seller-1", Status: product.StatusActive})
	svc, _, mr := newService(t, store)
	ctx := context.Background()

	issued, err := svc.IssueVerificationCode(ctx, "seller-1", "p1", inventory.ActionArchive)
	require.NoError(t, err)
	mr.FastForward(verify.DefaultTTL + time.Second)

	_, err = svc.SetProductStatus(ctx, "seller-1", "p1", product.StatusArchived, issued.Code)
	require.ErrorIs(t, err, common.ErrVerificationExpired)
}

func TestUnarchiveReturnsToDraft(t *testing.T) {
	store := newFakeStore(product.Product{ID: "p1", SellerID: "seller-1", Status: product.StatusArchived})
	svc, _, _ := newService(t, store)
	ctx := context.Background()

	issued, err := svc.IssueVerificationCode(ctx, "seller-1", "p1", inventory.ActionUnarchive)
	require.NoError(t, err)
	p, err := svc.SetProductStatus(ctx, "seller-1", "p1", product.StatusDraft, issued.Code)
	require.NoError(t, err)
	require.Equal(t, product.StatusDraft, p.Status)
	require.False(t, p.Visible())
}

func TestPublishNeedsNoCode(t *testing.T) {
	store := newFakeStore(product.Product{ID: "p1", SellerID: "seller-1", Status: product.StatusDraft})
	svc, ev, _ := newService(t, store)

	p, err := svc.SetProductStatus(context.Background(), "seller-1", "p1", product.StatusActive, "")
	require.NoError(t, err)
	require.True(t, p.Visible())
	require.Equal(t, []string{events.TopicProductPublished}, ev.topics)
}

func TestIllegalTransitionRejectedBeforeCode(t *testing.T) {
	store := newFakeStore(product.Product{ID: "p1", SellerID: "seller-1", Status: product.StatusDraft})
	svc, _, _ := newService(t, store)

	_, err := svc.IssueVerificationCode(context.Background(), "seller-1", "p1", inventory.ActionArchive)
	require.ErrorIs(t, err, common.ErrInvalidTransition)

	_, err = svc.SetProductStatus(context.Background(), "seller-1", "p1", product.StatusArchived, "123456")
	require.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestOtherSellerCannotSeeProduct(t *testing.T) {
	store := newFakeStore(product.Product{ID: "p1", SellerID: "seller-1", Status: product.StatusActive})
	svc, _, _ := newService(t, store)

	_, err := svc.IssueVerificationCode(context.Background(), "seller-2", "p1", inventory.ActionArchive)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestDecrementOptionStock(t *testing.T) {
	store := newFakeStore(shirt())
	svc, ev, _ := newService(t, store)
	ctx := context.Background()

	res, err := svc.DecrementStock(ctx, inventory.DecrementRequest{ProductID: "shirt", OptionID: "m", Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, inventory.ScopeOption, res.Scope)
	require.Equal(t, 2, res.Remaining)
	require.Equal(t, inventory.LevelLowStock, res.Level)
	require.Equal(t, []string{events.TopicInventoryLowStock}, ev.topics)

	res, err = svc.DecrementStock(ctx, inventory.DecrementRequest{ProductID: "shirt", OptionID: "m", Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, 0, res.Remaining)
	require.Equal(t, inventory.LevelOutOfStock, res.Level)
	require.Equal(t, []string{events.TopicInventoryLowStock, events.TopicInventoryOutOfStock}, ev.topics)

	require.Equal(t, 3, store.sales["shirt"])
	require.Equal(t, "1500.00", store.revenue["shirt"].String())
}

func TestDecrementAggregateVariation(t *testing.T) {
	store := newFakeStore(shirt())
	svc, _, _ := newService(t, store)

	res, err := svc.DecrementStock(context.Background(), inventory.DecrementRequest{ProductID: "shirt", OptionID: "red", Quantity: 7})
	require.NoError(t, err)
	require.Equal(t, inventory.ScopeVariation, res.Scope)
	require.Equal(t, 0, res.Remaining)

	p, _ := store.GetProduct(context.Background(), "shirt")
	require.Equal(t, 100, p.Variations[1].Options[0].Stock)
}

func TestDecrementInsufficientWritesNothing(t *testing.T) {
	store := newFakeStore(shirt())
	svc, ev, _ := newService(t, store)

	_, err := svc.DecrementStock(context.Background(), inventory.DecrementRequest{ProductID: "shirt", OptionID: "m", Quantity: 4})
	require.ErrorIs(t, err, common.ErrStockInsufficient)

	p, _ := store.GetProduct(context.Background(), "shirt")
	require.Equal(t, 3, p.Variations[0].Options[0].Stock)
	require.Zero(t, store.sales["shirt"])
	require.Empty(t, ev.topics)
}

func TestDecrementValidation(t *testing.T) {
	store := newFakeStore(shirt())
	svc, _, _ := newService(t, store)

	_, err := svc.DecrementStock(context.Background(), inventory.DecrementRequest{ProductID: "shirt", OptionID: "m", Quantity: 0})
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.DecrementStock(context.Background(), inventory.DecrementRequest{ProductID: "shirt", Quantity: 1})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestConcurrentDecrementNeverOversells(t *testing.T) {
	store := newFakeStore(product.Product{ID: "mug", SellerID: "s", Quantity: 5, LowStockAlert: 1, BasePrice: money.FromInt(250)})
	svc, _, _ := newService(t, store)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.DecrementStock(context.Background(), inventory.DecrementRequest{ProductID: "mug", Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if common.IsAppError(err) {
				rejected++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 5, succeeded)
	require.Equal(t, 7, rejected)
	p, _ := store.GetProduct(context.Background(), "mug")
	require.Equal(t, 0, p.Quantity)
}
