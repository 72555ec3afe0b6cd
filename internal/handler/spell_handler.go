package handler

import (
	"net/http"

	"github.com/kalleeh/monarchygame-sub001/internal/auth"
	"github.com/kalleeh/monarchygame-sub001/internal/ratelimit"
	"github.com/kalleeh/monarchygame-sub001/internal/service"
)

// SpellHandler handles spell casting.
type SpellHandler struct {
	spellSvc *service.SpellService
	limiter  *ratelimit.Limiter
}

// NewSpellHandler creates a SpellHandler.
func NewSpellHandler(spellSvc *service.SpellService, limiter *ratelimit.Limiter) *SpellHandler {
	return &SpellHandler{spellSvc: spellSvc, limiter: limiter}
}

// CastSpell handles POST /api/v1/kingdoms/{id}/spells/cast
func (h *SpellHandler) CastSpell(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	var req struct {
		Spell    string `json:"spell"`
		TargetID string `json:"target_id,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}
	if req.Spell == "" {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "spell is required")
		return
	}
	if !allowAction(w, h.limiter, ratelimit.ActionSpell) {
		return
	}

	result, err := h.spellSvc.CastSpell(r.Context(), r.PathValue("id"), ownerID, req.Spell, req.TargetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, result)
}
