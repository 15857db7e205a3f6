package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"credchain/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError collapses the internal error taxonomy to HTTP exactly once.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), map[string]any{"error": err.Error()})
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrPolicy):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
