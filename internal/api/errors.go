package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/slowka/slowka-api/internal/domain/srs"
	"github.com/slowka/slowka-api/internal/service/auth"
	"github.com/slowka/slowka-api/internal/service/review"
	"github.com/slowka/slowka-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, review.ErrWordNotFound),
		errors.Is(err, review.ErrWordNotEnrolled):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// An out-of-range rating is well-formed JSON that fails semantic
	// validation, so it maps to 422 rather than 400.
	case errors.Is(err, srs.ErrInvalidQuality):
		return http.StatusUnprocessableEntity

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, srs.ErrInvalidDays):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrWordNotFound),
		errors.Is(err, review.ErrWordNotFound):
		return "Word not found"

	case errors.Is(err, review.ErrWordNotEnrolled),
		errors.Is(err, store.ErrReviewStateNotFound):
		return "Word not enrolled for review"

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, store.ErrDuplicate):
		return "Entry already exists"

	// Validation errors
	case errors.Is(err, srs.ErrInvalidQuality):
		return "Quality rating must be between 0 and 5"

	case errors.Is(err, srs.ErrInvalidDays):
		return "Postpone days must be at least 1"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	// Default case for unknown errors
	default:
		var svcErr *review.ServiceError
		if errors.As(err, &svcErr) {
			switch svcErr.Operation {
			case "submit_review":
				return "Failed to record review"
			case "get_queue":
				return "Failed to build review queue"
			case "enroll_word":
				return "Failed to enroll word"
			case "postpone_word":
				return "Failed to postpone word"
			case "progress":
				return "Failed to load progress"
			}
		}
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format:
	// "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof", "gte", "lte":
		return "invalid value"
	default:
		return "validation failed"
	}
}
