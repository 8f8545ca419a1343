package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"centime/internal/core"
	"centime/internal/log"
	"centime/internal/services"
	"centime/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors onto the API taxonomy:
// validation failures are 400, missing-or-not-owned is 404, duplicate
// registration is 409, anything else is a logged 500 with no internal
// detail leaked.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "username already taken")
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Internal error",
			"error", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidMonth) ||
		errors.Is(err, core.ErrEmptyTagName) ||
		errors.Is(err, core.ErrDescriptionTooLong) ||
		errors.Is(err, services.ErrMissingFields)
}
