package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credchain/internal/apperr"
	"credchain/internal/profile"
)

// UpdateProfile handles POST /api/profile/update. The record is overwritten
// wholesale; the transaction hash in the response is synthetic.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	txHash, err := h.profiles.Update(p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         "Profile updated successfully",
		"transactionHash": txHash,
	})
}

// GetProfile handles GET /api/profile/{walletAddress}.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	walletAddress := chi.URLParam(r, "walletAddress")

	p, err := h.profiles.Get(walletAddress)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Profile not found"})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"profile": p,
	})
}
