package handler

import (
	"net/http"
	"os"

	"github.com/kalleeh/monarchygame-sub001/internal/auth"
)

// AuthHandler handles token issuance and refresh. Identity lives in an
// external system; the engine only needs a validated user ID.
type AuthHandler struct {
	jwtMgr *auth.JWTManager
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(jwtMgr *auth.JWTManager) *AuthHandler {
	return &AuthHandler{jwtMgr: jwtMgr}
}

// RefreshToken exchanges a refresh token for a new token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, CodeInvalidParam, "invalid request body")
		return
	}

	claims, err := h.jwtMgr.ValidateToken(req.RefreshToken)
	if err != nil {
		writeFail(w, http.StatusUnauthorized, CodeUnauthorized, "invalid refresh token")
		return
	}

	tokens, err := h.jwtMgr.GenerateTokenPair(claims.UserID)
	if err != nil {
		writeFail(w, http.StatusInternalServerError, CodeInternalError, "failed to generate tokens")
		return
	}

	writeSuccess(w, http.StatusOK, tokens)
}

// DevLogin issues a token pair for a named test user.
// Only available when DEV_MODE=true.
func (h *AuthHandler) DevLogin(w http.ResponseWriter, r *http.Request) {
	if os.Getenv("DEV_MODE") != "true" {
		writeFail(w, http.StatusNotFound, CodeNotFound, "not found")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		writeFail(w, http.StatusBadRequest, CodeMissingParams, "missing name parameter")
		return
	}

	tokens, err := h.jwtMgr.GenerateTokenPair("dev-" + name)
	if err != nil {
		writeFail(w, http.StatusInternalServerError, CodeInternalError, "failed to generate tokens")
		return
	}

	writeSuccess(w, http.StatusOK, tokens)
}
