package discount

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/storefront-engine/internal/common"
)

// Handler exposes seller discount management endpoints.
type Handler struct {
	Svc *Service
}

func sellerFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return "", false
	}
	return id, true
}

// windowName returns the percent-decoded {name} segment.
func windowName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

// List returns {active, pending} windows for the seller.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := sellerFrom(w, r)
	if !ok {
		return
	}
	buckets, err := h.Svc.List(r.Context(), sellerID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": buckets})
}

// Create stores a new window.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := sellerFrom(w, r)
	if !ok {
		return
	}
	var payload Window
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	created, err := h.Svc.Create(r.Context(), sellerID, payload)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update replaces the window named in the URL.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := sellerFrom(w, r)
	if !ok {
		return
	}
	var payload Window
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	updated, err := h.Svc.Update(r.Context(), sellerID, windowName(r), payload)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Delete removes the window named in the URL.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := sellerFrom(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), sellerID, windowName(r)); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Cleanup detaches the seller's expired windows on demand.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := sellerFrom(w, r)
	if !ok {
		return
	}
	res, err := h.Svc.Cleanup(r.Context(), sellerID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}

// Discountable lists products for the window picker.
func (h *Handler) Discountable(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := sellerFrom(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, h.Svc.perPage)
	res, err := h.Svc.Discountable(r.Context(), sellerID, page, perPage, strings.TrimSpace(r.URL.Query().Get("search")))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": res.Items, "pagination": res.Pagination})
}
