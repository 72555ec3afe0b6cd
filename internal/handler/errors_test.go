package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kalleeh/monarchygame-sub001/internal/economy"
	"github.com/kalleeh/monarchygame-sub001/internal/service"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{service.ErrKingdomNotFound, http.StatusNotFound, CodeNotFound},
		{service.ErrGuildNotFound, http.StatusNotFound, CodeNotFound},
		{service.ErrWarNotFound, http.StatusNotFound, CodeNotFound},
		{service.ErrTradeNotFound, http.StatusNotFound, CodeNotFound},
		{service.ErrTreatyNotFound, http.StatusNotFound, CodeNotFound},
		{service.ErrBountyNotFound, http.StatusNotFound, CodeNotFound},
		{service.ErrTargetNotFound, http.StatusNotFound, CodeNotFound},
		{service.ErrNotOwner, http.StatusForbidden, CodeForbidden},
		{service.ErrNotGuildMember, http.StatusForbidden, CodeForbidden},
		{service.ErrNotGuildLeader, http.StatusForbidden, CodeForbidden},
		{service.ErrTreatyForbids, http.StatusForbidden, CodeForbidden},
		{service.ErrInvalidInput, http.StatusBadRequest, CodeInvalidParam},
		{service.ErrInsufficientUnits, http.StatusBadRequest, CodeInvalidParam},
		{service.ErrSelfWar, http.StatusBadRequest, CodeInvalidParam},
		{economy.ErrUnknownResource, http.StatusBadRequest, CodeInvalidParam},
		{economy.ErrInsufficientResources, http.StatusBadRequest, CodeInsufficientResources},
		{service.ErrAlreadyAtWar, http.StatusConflict, CodeAlreadyAtWar},
		{service.ErrWarNotActive, http.StatusConflict, CodeWarNotActive},
		{service.ErrRegionFull, http.StatusConflict, CodeRegionFull},
		{errors.New("database exploded"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeServiceError(rec, tt.err)

		if rec.Code != tt.wantStatus {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.wantStatus)
		}
		var result struct {
			Success   bool   `json:"success"`
			ErrorCode string `json:"errorCode"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("%v: decode response: %v", tt.err, err)
		}
		if result.Success {
			t.Errorf("%v: expected success=false", tt.err)
		}
		if result.ErrorCode != tt.wantCode {
			t.Errorf("%v: errorCode = %s, want %s", tt.err, result.ErrorCode, tt.wantCode)
		}
	}
}

func TestWriteServiceErrorWrapped(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, fmt.Errorf("%w: quantity must be 1-100000", service.ErrInvalidInput))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("wrapped sentinel should still map, got %d", rec.Code)
	}
}

func TestWriteServiceErrorDoesNotLeakInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, errors.New("pq: connection refused at 10.0.0.5"))

	var result struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Error != "internal error" {
		t.Errorf("internal detail leaked to the client: %q", result.Error)
	}
}
