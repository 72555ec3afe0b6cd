package handler

import (
	"net/http"

	"github.com/kalleeh/monarchygame-sub001/internal/auth"
	"github.com/kalleeh/monarchygame-sub001/internal/ratelimit"
	"github.com/kalleeh/monarchygame-sub001/internal/service"
)

// TreatyHandler handles treaty endpoints.
type TreatyHandler struct {
	treatySvc *service.TreatyService
	limiter   *ratelimit.Limiter
}

// NewTreatyHandler creates a TreatyHandler.
func NewTreatyHandler(treatySvc *service.TreatyService, limiter *ratelimit.Limiter) *TreatyHandler {
	return &TreatyHandler{treatySvc: treatySvc, limiter: limiter}
}

// ProposeTreaty handles POST /api/v1/treaties
func (h *TreatyHandler) ProposeTreaty(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	var req struct {
		KingdomID   string `json:"kingdom_id"`
		RecipientID string `json:"recipient_id"`
		Type        string `json:"type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}
	if req.KingdomID == "" || req.RecipientID == "" || req.Type == "" {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "kingdom_id, recipient_id and type are required")
		return
	}
	if !allowAction(w, h.limiter, ratelimit.ActionTreaty) {
		return
	}

	treaty, err := h.treatySvc.ProposeTreaty(r.Context(), req.KingdomID, ownerID, req.RecipientID, req.Type)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, treaty)
}

// AcceptTreaty handles POST /api/v1/treaties/{id}/accept
func (h *TreatyHandler) AcceptTreaty(w http.ResponseWriter, r *http.Request) {
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

	treaty, err := h.treatySvc.AcceptTreaty(r.Context(), r.PathValue("id"), req.KingdomID, ownerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, treaty)
}

// BreakTreaty handles POST /api/v1/treaties/{id}/break
func (h *TreatyHandler) BreakTreaty(w http.ResponseWriter, r *http.Request) {
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

	treaty, err := h.treatySvc.BreakTreaty(r.Context(), r.PathValue("id"), req.KingdomID, ownerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, treaty)
}

// ListTreaties handles GET /api/v1/kingdoms/{id}/treaties
func (h *TreatyHandler) ListTreaties(w http.ResponseWriter, r *http.Request) {
	treaties, err := h.treatySvc.ListTreaties(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, treaties)
}
