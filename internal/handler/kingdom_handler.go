package handler

import (
	"net/http"

	"github.com/kalleeh/monarchygame-sub001/internal/auth"
	"github.com/kalleeh/monarchygame-sub001/internal/ratelimit"
	"github.com/kalleeh/monarchygame-sub001/internal/service"
)

// KingdomHandler handles kingdom CRUD, training and construction.
type KingdomHandler struct {
	kingdomSvc *service.KingdomService
	limiter    *ratelimit.Limiter
}

// NewKingdomHandler creates a KingdomHandler.
func NewKingdomHandler(kingdomSvc *service.KingdomService, limiter *ratelimit.Limiter) *KingdomHandler {
	return &KingdomHandler{kingdomSvc: kingdomSvc, limiter: limiter}
}

// CreateKingdom handles POST /api/v1/kingdoms
func (h *KingdomHandler) CreateKingdom(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	var req struct {
		Name string `json:"name"`
		Race string `json:"race"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}
	if req.Name == "" || req.Race == "" {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "name and race are required")
		return
	}

	kingdom, err := h.kingdomSvc.CreateKingdom(r.Context(), ownerID, req.Name, req.Race)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, kingdom)
}

// GetKingdom handles GET /api/v1/kingdoms/{id}
func (h *KingdomHandler) GetKingdom(w http.ResponseWriter, r *http.Request) {
	kingdom, err := h.kingdomSvc.GetKingdom(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, kingdom)
}

// ListReports handles GET /api/v1/kingdoms/{id}/reports
func (h *KingdomHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.kingdomSvc.Reports(r.Context(), r.PathValue("id"), 50)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, reports)
}

// Train handles POST /api/v1/kingdoms/{id}/train
func (h *KingdomHandler) Train(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	var req struct {
		UnitType string `json:"unit_type"`
		Quantity int    `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}
	if req.UnitType == "" || req.Quantity == 0 {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "unit_type and quantity are required")
		return
	}
	if !allowAction(w, h.limiter, ratelimit.ActionTrain) {
		return
	}

	kingdom, err := h.kingdomSvc.TrainUnits(r.Context(), r.PathValue("id"), ownerID, req.UnitType, req.Quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, kingdom)
}

// Build handles POST /api/v1/kingdoms/{id}/build
func (h *KingdomHandler) Build(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	var req struct {
		BuildingType string `json:"building_type"`
		Quantity     int    `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}
	if req.BuildingType == "" || req.Quantity == 0 {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "building_type and quantity are required")
		return
	}
	if !allowAction(w, h.limiter, ratelimit.ActionBuild) {
		return
	}

	kingdom, err := h.kingdomSvc.ConstructBuildings(r.Context(), r.PathValue("id"), ownerID, req.BuildingType, req.Quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, kingdom)
}

// TickTurns handles POST /api/v1/admin/tick
func (h *KingdomHandler) TickTurns(w http.ResponseWriter, r *http.Request) {
	report, err := h.kingdomSvc.TickTurns(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, report)
}
