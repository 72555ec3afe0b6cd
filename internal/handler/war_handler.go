package handler

import (
	"net/http"

	"github.com/kalleeh/monarchygame-sub001/internal/auth"
	"github.com/kalleeh/monarchygame-sub001/internal/ratelimit"
	"github.com/kalleeh/monarchygame-sub001/internal/service"
)

// WarHandler handles guild war lifecycle endpoints.
type WarHandler struct {
	warSvc  *service.WarService
	limiter *ratelimit.Limiter
}

// NewWarHandler creates a WarHandler.
func NewWarHandler(warSvc *service.WarService, limiter *ratelimit.Limiter) *WarHandler {
	return &WarHandler{warSvc: warSvc, limiter: limiter}
}

// DeclareWar handles POST /api/v1/wars
func (h *WarHandler) DeclareWar(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	var req struct {
		KingdomID     string `json:"kingdom_id"`
		TargetGuildID string `json:"target_guild_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}
	if req.KingdomID == "" || req.TargetGuildID == "" {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "kingdom_id and target_guild_id are required")
		return
	}
	if !allowAction(w, h.limiter, ratelimit.ActionWar) {
		return
	}

	war, err := h.warSvc.DeclareWar(r.Context(), req.KingdomID, ownerID, req.TargetGuildID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, war)
}

// ListWars handles GET /api/v1/wars
func (h *WarHandler) ListWars(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("status") == "active"
	wars, err := h.warSvc.ListWars(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, wars)
}

// GetWar handles GET /api/v1/wars/{id}
func (h *WarHandler) GetWar(w http.ResponseWriter, r *http.Request) {
	war, err := h.warSvc.GetWar(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, war)
}

// ResolveWar handles POST /api/v1/wars/{id}/resolve
func (h *WarHandler) ResolveWar(w http.ResponseWriter, r *http.Request) {
	war, err := h.warSvc.ResolveWar(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, war)
}

// ConcedeWar handles POST /api/v1/wars/{id}/concede
func (h *WarHandler) ConcedeWar(w http.ResponseWriter, r *http.Request) {
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

	war, err := h.warSvc.ConcedeWar(r.Context(), r.PathValue("id"), req.KingdomID, ownerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, war)
}
