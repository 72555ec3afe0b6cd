package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/kalleeh/monarchygame-sub001/internal/economy"
	"github.com/kalleeh/monarchygame-sub001/internal/service"
)

// Stable error codes returned in the failure envelope. Clients branch
// on these, never on message text.
const (
	CodeMissingParams         = "MISSING_PARAMS"
	CodeInvalidParam          = "INVALID_PARAM"
	CodeNotFound              = "NOT_FOUND"
	CodeForbidden             = "FORBIDDEN"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeInsufficientResources = "INSUFFICIENT_RESOURCES"
	CodeRateLimited           = "RATE_LIMITED"
	CodeRegionFull            = "REGION_FULL"
	CodeAlreadyAtWar          = "ALREADY_AT_WAR"
	CodeWarNotActive          = "WAR_NOT_ACTIVE"
	CodeInternalError         = "INTERNAL_ERROR"
)

// writeServiceError maps a service error onto status and error code.
// Unrecognized errors become INTERNAL_ERROR with the cause logged, never
// leaked.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrKingdomNotFound),
		errors.Is(err, service.ErrGuildNotFound),
		errors.Is(err, service.ErrWarNotFound),
		errors.Is(err, service.ErrTradeNotFound),
		errors.Is(err, service.ErrTreatyNotFound),
		errors.Is(err, service.ErrBountyNotFound),
		errors.Is(err, service.ErrTargetNotFound):
		writeFail(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrNotGuildMember),
		errors.Is(err, service.ErrNotGuildLeader),
		errors.Is(err, service.ErrTreatyForbids):
		writeFail(w, http.StatusForbidden, CodeForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInsufficientUnits),
		errors.Is(err, service.ErrSelfWar),
		errors.Is(err, economy.ErrUnknownResource):
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, err.Error())
	case errors.Is(err, economy.ErrInsufficientResources):
		writeFail(w, http.StatusBadRequest, CodeInsufficientResources, err.Error())
	case errors.Is(err, service.ErrAlreadyAtWar):
		writeFail(w, http.StatusConflict, CodeAlreadyAtWar, err.Error())
	case errors.Is(err, service.ErrWarNotActive):
		writeFail(w, http.StatusConflict, CodeWarNotActive, err.Error())
	case errors.Is(err, service.ErrRegionFull):
		writeFail(w, http.StatusConflict, CodeRegionFull, err.Error())
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		writeFail(w, http.StatusInternalServerError, CodeInternalError, "internal error")
	}
}
