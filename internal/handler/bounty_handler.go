package handler

import (
	"net/http"

	"github.com/kalleeh/monarchygame-sub001/internal/auth"
	"github.com/kalleeh/monarchygame-sub001/internal/ratelimit"
	"github.com/kalleeh/monarchygame-sub001/internal/service"
)

// BountyHandler handles bounty endpoints.
type BountyHandler struct {
	bountySvc *service.BountyService
	limiter   *ratelimit.Limiter
}

// NewBountyHandler creates a BountyHandler.
func NewBountyHandler(bountySvc *service.BountyService, limiter *ratelimit.Limiter) *BountyHandler {
	return &BountyHandler{bountySvc: bountySvc, limiter: limiter}
}

// PlaceBounty handles POST /api/v1/bounties
func (h *BountyHandler) PlaceBounty(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	var req struct {
		KingdomID string `json:"kingdom_id"`
		TargetID  string `json:"target_id"`
		Amount    int64  `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}
	if req.KingdomID == "" || req.TargetID == "" || req.Amount == 0 {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "kingdom_id, target_id and amount are required")
		return
	}
	if !allowAction(w, h.limiter, ratelimit.ActionBounty) {
		return
	}

	bounty, err := h.bountySvc.PlaceBounty(r.Context(), req.KingdomID, ownerID, req.TargetID, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, bounty)
}

// ListBounties handles GET /api/v1/bounties?target={kingdomId}
func (h *BountyHandler) ListBounties(w http.ResponseWriter, r *http.Request) {
	targetID := r.URL.Query().Get("target")
	if targetID == "" {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "target query parameter is required")
		return
	}
	bounties, err := h.bountySvc.ListBounties(r.Context(), targetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, bounties)
}

// CancelBounty handles POST /api/v1/bounties/{id}/cancel
func (h *BountyHandler) CancelBounty(w http.ResponseWriter, r *http.Request) {
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

	if err := h.bountySvc.CancelBounty(r.Context(), r.PathValue("id"), req.KingdomID, ownerID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
