package handler

import (
	"net/http"

	"github.com/kalleeh/monarchygame-sub001/internal/auth"
	"github.com/kalleeh/monarchygame-sub001/internal/ratelimit"
	"github.com/kalleeh/monarchygame-sub001/internal/service"
)

// TradeHandler handles trade offer endpoints.
type TradeHandler struct {
	tradeSvc *service.TradeService
	limiter  *ratelimit.Limiter
}

// NewTradeHandler creates a TradeHandler.
func NewTradeHandler(tradeSvc *service.TradeService, limiter *ratelimit.Limiter) *TradeHandler {
	return &TradeHandler{tradeSvc: tradeSvc, limiter: limiter}
}

// CreateOffer handles POST /api/v1/trades
func (h *TradeHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	var req struct {
		KingdomID     string `json:"kingdom_id"`
		OfferResource string `json:"offer_resource"`
		OfferAmount   int64  `json:"offer_amount"`
		WantResource  string `json:"want_resource"`
		WantAmount    int64  `json:"want_amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}
	if req.KingdomID == "" || req.OfferResource == "" || req.WantResource == "" {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "kingdom_id, offer_resource and want_resource are required")
		return
	}
	if !allowAction(w, h.limiter, ratelimit.ActionTrade) {
		return
	}

	offer, err := h.tradeSvc.CreateOffer(r.Context(), req.KingdomID, ownerID, req.OfferResource, req.OfferAmount, req.WantResource, req.WantAmount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, offer)
}

// ListOpen handles GET /api/v1/trades
func (h *TradeHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	offers, err := h.tradeSvc.ListOpen(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, offers)
}

// AcceptOffer handles POST /api/v1/trades/{id}/accept
func (h *TradeHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	var req struct {
		KingdomID string `json:"kingdom_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}
	if req.KingdomID == "" {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "kingdom_id is required")
		return
	}
	if !allowAction(w, h.limiter, ratelimit.ActionTrade) {
		return
	}

	offer, err := h.tradeSvc.AcceptOffer(r.Context(), r.PathValue("id"), req.KingdomID, ownerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, offer)
}

// CancelOffer handles POST /api/v1/trades/{id}/cancel
func (h *TradeHandler) CancelOffer(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	var req struct {
		KingdomID string `json:"kingdom_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}
	if req.KingdomID == "" {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "kingdom_id is required")
		return
	}

	if err := h.tradeSvc.CancelOffer(r.Context(), r.PathValue("id"), req.KingdomID, ownerID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
