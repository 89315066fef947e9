// Package handler contains the HTTP layer: request parsing, response
// encoding, and the mapping from categorical service errors to status codes.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tanvir/identity/internal/apperror"
)

// ErrorResponse is the standard error shape returned by every API endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable error type, e.g. "not_found"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending field, for validation errors
}

// writeJSON sends a JSON response with the given status code. Headers must be
// set before the first body write.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a service error to its HTTP status and sends it.
//
// The mapping is purely categorical: not-found 404, validation 400,
// wrong-password 401, forbidden 403, conflict 409, anything else a generic
// 500 with no internal detail leaked.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrWrongPassword):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
