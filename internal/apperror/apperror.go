// Package apperror defines the categorical errors the service layer returns.
//
// Every failure mode an operation can produce maps to exactly one sentinel:
// callers (the HTTP layer) use errors.Is to pick a transport status and never
// inspect message text. Services wrap these with fmt.Errorf("...: %w", err),
// so the sentinel survives anywhere in the chain.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrWrongPassword = errors.New("wrong password")
)

// AppError carries a sentinel plus a human-readable message and, for
// validation failures, the offending field name.
type AppError struct {
	Err     error  // sentinel category
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that no record of the given resource exists under id.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed reports a rejected input field. HTTP handlers map this to
// 400 Bad Request.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation (duplicate email, github id already
// claimed by someone else). HTTP handlers map this to 409 Conflict.
func Conflict(resource, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s: %s", resource, message),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// WrongPassword reports a credential mismatch. HTTP handlers map this to
// 401 Unauthorized. The message deliberately does not say which half of the
// credential pair was wrong.
func WrongPassword() *AppError {
	return &AppError{
		Err:     ErrWrongPassword,
		Message: "invalid email or password",
	}
}
