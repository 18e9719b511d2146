package cart_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-engine/internal/cart"
	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/money"
	"github.com/noah-isme/storefront-engine/internal/product"
)

type stubProducts map[string]product.Product

func (s stubProducts) GetProduct(_ context.Context, id string) (product.Product, error) {
	p, ok := s[id]
	if !ok {
		return product.Product{}, common.NotFoundError("product")
	}
	return p, nil
}

func newHandler() *cart.Handler {
	products := stubProducts{
		"mug": {ID: "mug", Name: "Mug", Shop: &product.Shop{ID: "A"}, BasePrice: money.FromInt(100), Quantity: 3, Status: product.StatusActive},
		"cap": {ID: "cap", Name: "Cap", Shop: &product.Shop{ID: "B"}, BasePrice: money.FromInt(300), Quantity: 1, Status: product.StatusActive},
		"old": {ID: "old", Name: "Old", BasePrice: money.FromInt(1), Quantity: 1, Status: product.StatusArchived},
		"tee": sizedTee(false, 0, 10),
	}
	return &cart.Handler{Svc: &cart.Service{Products: products, Now: func() time.Time { return now }}}
}

func TestSummaryHandler(t *testing.T) {
	h := newHandler()
	body := `{"lines":[{"id":"1","product_id":"mug","quantity":2},{"id":"2","product_id":"cap","quantity":1}],"selected":["1"]}`
	rr := httptest.NewRecorder()
	h.Summary(rr, httptest.NewRequest(http.MethodPost, "/api/v1/cart/summary", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data struct {
			SelectedTotal string `json:"selected_total"`
			SelectedCount int    `json:"selected_count"`
			Groups        []struct {
				ShopID      string `json:"shop_id"`
				AllSelected bool   `json:"all_selected"`
			} `json:"groups"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "200.00", resp.Data.SelectedTotal)
	require.Equal(t, 1, resp.Data.SelectedCount)
	require.Len(t, resp.Data.Groups, 2)
	require.True(t, resp.Data.Groups[0].AllSelected)
	require.False(t, resp.Data.Groups[1].AllSelected)
}

func TestSummaryHiddenProduct(t *testing.T) {
	h := newHandler()
	body := `{"lines":[{"id":"1","product_id":"old","quantity":1}]}`
	rr := httptest.NewRecorder()
	h.Summary(rr, httptest.NewRequest(http.MethodPost, "/api/v1/cart/summary", strings.NewReader(body)))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSummaryRejectsUnfulfillableLines(t *testing.T) {
	h := newHandler()

	rr := httptest.NewRecorder()
	body := `{"lines":[{"id":"1","product_id":"mug","quantity":99},{"id":"2","product_id":"cap","quantity":1}],"selected":["1","2"]}`
	h.Summary(rr, httptest.NewRequest(http.MethodPost, "/api/v1/cart/summary", strings.NewReader(body)))
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "STOCK_INSUFFICIENT")
	require.Contains(t, rr.Body.String(), `"line_id":"1"`)

	rr = httptest.NewRecorder()
	body = `{"lines":[{"id":"7","product_id":"tee","quantity":5}],"selected":["7"]}`
	h.Summary(rr, httptest.NewRequest(http.MethodPost, "/api/v1/cart/summary", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "VALIDATION_ERROR")
	require.Contains(t, rr.Body.String(), `"line_id":"7"`)

	rr = httptest.NewRecorder()
	body = `{"lines":[{"id":"7","product_id":"tee","option_id":"opt-s","quantity":5}],"selected":["7"]}`
	h.Summary(rr, httptest.NewRequest(http.MethodPost, "/api/v1/cart/summary", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"selected_total":"1250.00"`)
}

func TestSummaryServiceErrors(t *testing.T) {
	svc := newHandler().Svc

	_, err := svc.Summarize(context.Background(), cart.SummaryRequest{
		Lines: []cart.LineInput{{ID: "1", ProductID: "cap", Quantity: 2}},
	})
	require.ErrorIs(t, err, common.ErrStockInsufficient)

	_, err = svc.Summarize(context.Background(), cart.SummaryRequest{
		Lines: []cart.LineInput{{ID: "1", ProductID: "tee", Quantity: 1}},
	})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.ChangeQuantity(context.Background(), "1", cart.QuantityRequest{
		ProductID: "tee", Quantity: 5, Action: cart.QuantityDecrement,
	})
	require.ErrorIs(t, err, common.ErrValidation)

	qty, err := svc.ChangeQuantity(context.Background(), "1", cart.QuantityRequest{
		ProductID: "tee", OptionID: "opt-m", Quantity: 5, Action: cart.QuantityDecrement,
	})
	require.NoError(t, err)
	require.Equal(t, 4, qty)
}

func quantityRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/lines/1/quantity", strings.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("lineId", "1")
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestQuantityHandler(t *testing.T) {
	h := newHandler()

	rr := httptest.NewRecorder()
	h.Quantity(rr, quantityRequest(`{"product_id":"mug","quantity":2,"action":"increment"}`))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"data":{"id":"1","quantity":3}}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.Quantity(rr, quantityRequest(`{"product_id":"mug","quantity":3,"action":"increment"}`))
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "STOCK_INSUFFICIENT")

	rr = httptest.NewRecorder()
	h.Quantity(rr, quantityRequest(`{"product_id":"mug","quantity":1,"action":"decrement"}`))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.Quantity(rr, quantityRequest(`{"product_id":"tee","quantity":5,"action":"decrement"}`))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.Quantity(rr, quantityRequest(`{"product_id":"mug","quantity":1,"action":"explode"}`))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
