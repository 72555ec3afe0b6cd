package handler

import (
	"context"
	"net/http"

	"github.com/kalleeh/monarchygame-sub001/internal/auth"
	"github.com/kalleeh/monarchygame-sub001/internal/ratelimit"
	"github.com/kalleeh/monarchygame-sub001/internal/service"
)

// GuildHandler handles guild and treasury endpoints.
type GuildHandler struct {
	guildSvc *service.GuildService
	limiter  *ratelimit.Limiter
}

// NewGuildHandler creates a GuildHandler.
func NewGuildHandler(guildSvc *service.GuildService, limiter *ratelimit.Limiter) *GuildHandler {
	return &GuildHandler{guildSvc: guildSvc, limiter: limiter}
}

// CreateGuild handles POST /api/v1/guilds
func (h *GuildHandler) CreateGuild(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	var req struct {
		KingdomID string `json:"kingdom_id"`
		Name      string `json:"name"`
		Tag       string `json:"tag"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}
	if req.KingdomID == "" || req.Name == "" || req.Tag == "" {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "kingdom_id, name and tag are required")
		return
	}

	guild, err := h.guildSvc.CreateGuild(r.Context(), req.KingdomID, ownerID, req.Name, req.Tag)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, guild)
}

// GetGuild handles GET /api/v1/guilds/{id}
func (h *GuildHandler) GetGuild(w http.ResponseWriter, r *http.Request) {
	guild, err := h.guildSvc.GetGuild(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, guild)
}

// JoinGuild handles POST /api/v1/guilds/{id}/join
func (h *GuildHandler) JoinGuild(w http.ResponseWriter, r *http.Request) {
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

	kingdom, err := h.guildSvc.JoinGuild(r.Context(), r.PathValue("id"), req.KingdomID, ownerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, kingdom)
}

// Deposit handles POST /api/v1/guilds/{id}/treasury/deposit
func (h *GuildHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.treasuryOp(w, r, h.guildSvc.Deposit)
}

// Withdraw handles POST /api/v1/guilds/{id}/treasury/withdraw
func (h *GuildHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.treasuryOp(w, r, h.guildSvc.Withdraw)
}

func (h *GuildHandler) treasuryOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, guildID, kingdomID, ownerID string, amount int64) (int64, error)) {
	ownerID := auth.UserIDFromContext(r.Context())
	var req struct {
		KingdomID string `json:"kingdom_id"`
		Amount    int64  `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}
	if req.KingdomID == "" || req.Amount == 0 {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "kingdom_id and amount are required")
		return
	}
	if !allowAction(w, h.limiter, ratelimit.ActionTreasury) {
		return
	}

	balance, err := op(r.Context(), r.PathValue("id"), req.KingdomID, ownerID, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]int64{"treasury": balance})
}
