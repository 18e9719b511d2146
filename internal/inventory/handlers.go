package inventory

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/product"
)

// Handler exposes seller lifecycle and checkout stock endpoints.
type Handler struct {
	Svc *Service
}

type statusRequest struct {
	Status           string `json:"status" validate:"required,oneof=draft active archived"`
	VerificationCode string `json:"verification_code"`
}

// VerificationCode issues a code for ?action=archive|unarchive.
func (h *Handler) VerificationCode(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	action, err := ParseVerifiableAction(strings.TrimSpace(r.URL.Query().Get("action")))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	issued, err := h.Svc.IssueVerificationCode(r.Context(), sellerID, chi.URLParam(r, "id"), action)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": issued})
}

// SetStatus applies a lifecycle transition.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var req statusRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Svc.SetProductStatus(r.Context(), sellerID, chi.URLParam(r, "id"), product.Status(req.Status), req.VerificationCode)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"id":         p.ID,
		"status":     p.Status,
		"visible":    p.Visible(),
		"updated_at": p.UpdatedAt,
	}})
}

// Decrement consumes stock for a checkout line.
func (h *Handler) Decrement(w http.ResponseWriter, r *http.Request) {
	var req DecrementRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteError(w, err)
		return
	}
	res, err := h.Svc.DecrementStock(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}
