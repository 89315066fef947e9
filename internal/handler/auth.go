package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tanvir/identity/internal/service"
)

// AuthHandler exposes credential verification. There is no session or token
// issuance here; a successful login simply returns the verified user id and
// any session concern belongs to the caller.
type AuthHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(accounts *service.AccountService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		logger:   logger,
	}
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID string `json:"userId"`
}

// HandleLogin verifies an email/password pair.
//
// HTTP: POST /api/auth/login
// Responses: 200 {"userId": ...}, 404 for an unknown email, 401 for a wrong
// password.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid_json", Message: "request body must be valid JSON",
		})
		return
	}

	userID, err := h.accounts.VerifyCredentials(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{UserID: userID})
}
