package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/storefront-engine/internal/common"
)

// Handler exposes the stateless cart pricing endpoints.
type Handler struct {
	Svc *Service
}

// Summary prices the posted lines grouped by shop.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	summary, err := h.Svc.Summarize(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}

// Quantity applies increment, decrement or set to a line.
func (h *Handler) Quantity(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	lineID := chi.URLParam(r, "lineId")
	qty, err := h.Svc.ChangeQuantity(r.Context(), lineID, req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": lineID, "quantity": qty}})
}
