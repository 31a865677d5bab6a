package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/slowka/slowka-api/internal/api/shared"
	"github.com/slowka/slowka-api/internal/domain"
	"github.com/slowka/slowka-api/internal/platform/logger"
)

// Thin aliases so handlers in this package read cleanly.

// DecodeJSON decodes the request body into the given struct.
func DecodeJSON(r *http.Request, v interface{}) error {
	return shared.DecodeJSON(r, v)
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	shared.RespondWithJSON(w, r, status, data)
}

// RespondWithError writes a JSON error response with the given status code and message.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	shared.RespondWithError(w, r, status, message)
}

// HandleAPIError maps err to a status code and safe message, logs the full
// error, and writes the sanitized response. A non-empty messageOverride
// replaces the derived message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, messageOverride string) {
	status := MapErrorToStatusCode(err)
	message := messageOverride
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// getUserIDFromContext extracts the authenticated user's UUID from the
// request context, where the authentication middleware placed it.
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// requireUserAndPathUUID extracts the authenticated user ID and a UUID path
// parameter, writing the error response itself when either is missing.
// Returns false if an error response was already written.
func requireUserAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
) (uuid.UUID, uuid.UUID, bool) {
	log := logger.FromContext(r.Context())

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		log.Warn("invalid path parameter",
			"param_name", paramName,
			"value", chi.URLParam(r, paramName))
		RespondWithError(w, r, http.StatusBadRequest, "Invalid "+paramName)
		return uuid.Nil, uuid.Nil, false
	}

	return userID, pathID, true
}
