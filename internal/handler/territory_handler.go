package handler

import (
	"net/http"

	"github.com/kalleeh/monarchygame-sub001/internal/auth"
	"github.com/kalleeh/monarchygame-sub001/internal/ratelimit"
	"github.com/kalleeh/monarchygame-sub001/internal/service"
)

// TerritoryHandler handles map claims.
type TerritoryHandler struct {
	territorySvc *service.TerritoryService
	limiter      *ratelimit.Limiter
}

// NewTerritoryHandler creates a TerritoryHandler.
func NewTerritoryHandler(territorySvc *service.TerritoryService, limiter *ratelimit.Limiter) *TerritoryHandler {
	return &TerritoryHandler{territorySvc: territorySvc, limiter: limiter}
}

// ClaimTerritory handles POST /api/v1/kingdoms/{id}/territories
func (h *TerritoryHandler) ClaimTerritory(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	var req struct {
		Name     string `json:"name"`
		Terrain  string `json:"terrain,omitempty"`
		X        *int   `json:"x"`
		Y        *int   `json:"y"`
		RegionID string `json:"region_id,omitempty"`
		Category string `json:"category,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}
	if req.Name == "" || req.X == nil || req.Y == nil {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "name, x and y are required")
		return
	}
	if !allowAction(w, h.limiter, ratelimit.ActionTerritory) {
		return
	}

	territory, err := h.territorySvc.ClaimTerritory(r.Context(), service.ClaimRequest{
		KingdomID: r.PathValue("id"),
		OwnerID:   ownerID,
		Name:      req.Name,
		Terrain:   req.Terrain,
		X:         *req.X,
		Y:         *req.Y,
		RegionID:  req.RegionID,
		Category:  req.Category,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, territory)
}

// ListTerritories handles GET /api/v1/kingdoms/{id}/territories
func (h *TerritoryHandler) ListTerritories(w http.ResponseWriter, r *http.Request) {
	territories, err := h.territorySvc.ListTerritories(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, territories)
}
