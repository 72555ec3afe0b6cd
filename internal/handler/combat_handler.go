package handler

import (
	"net/http"

	"github.com/kalleeh/monarchygame-sub001/internal/auth"
	"github.com/kalleeh/monarchygame-sub001/internal/ratelimit"
	"github.com/kalleeh/monarchygame-sub001/internal/service"
)

// CombatHandler handles attacks and thievery.
type CombatHandler struct {
	combatSvc *service.CombatService
	limiter   *ratelimit.Limiter
}

// NewCombatHandler creates a CombatHandler.
func NewCombatHandler(combatSvc *service.CombatService, limiter *ratelimit.Limiter) *CombatHandler {
	return &CombatHandler{combatSvc: combatSvc, limiter: limiter}
}

// Attack handles POST /api/v1/kingdoms/{id}/attack
func (h *CombatHandler) Attack(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	var req struct {
		DefenderID string         `json:"defender_id"`
		AttackType string         `json:"attack_type"`
		Units      map[string]int `json:"units"`
		Formation  string         `json:"formation,omitempty"`
		Terrain    string         `json:"terrain,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}
	if req.DefenderID == "" || req.AttackType == "" || len(req.Units) == 0 {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "defender_id, attack_type and units are required")
		return
	}
	if !allowAction(w, h.limiter, ratelimit.ActionAttack) {
		return
	}

	result, err := h.combatSvc.Attack(r.Context(), service.AttackRequest{
		AttackerID: r.PathValue("id"),
		OwnerID:    ownerID,
		DefenderID: req.DefenderID,
		AttackType: req.AttackType,
		SentUnits:  req.Units,
		Formation:  req.Formation,
		Terrain:    req.Terrain,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, result)
}

// Thievery handles POST /api/v1/kingdoms/{id}/thievery
func (h *CombatHandler) Thievery(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	var req struct {
		TargetID string `json:"target_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}
	if req.TargetID == "" {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "target_id is required")
		return
	}
	if !allowAction(w, h.limiter, ratelimit.ActionThievery) {
		return
	}

	result, err := h.combatSvc.Thievery(r.Context(), r.PathValue("id"), ownerID, req.TargetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, result)
}
