package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

type shareClaims struct {
	TokenID string `json:"token_id"`
	jwt.RegisteredClaims
}

// CreateShareLink handles POST /api/credentials/share. It signs a
// short-lived link a student can hand to an employer; the link resolves
// through ShareInfo without exposing anything beyond the one credential.
func (h *Handler) CreateShareLink(w http.ResponseWriter, r *http.Request) {
	if len(h.shareSecret) == 0 {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "server misconfigured"})
		return
	}

	// Be liberal in what we accept from the frontend
	var payload map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}
	tokenID, _ := stringField(payload["tokenId"])
	if tokenID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "tokenId is required"})
		return
	}
	expires := 0
	if v, ok := payload["expiresInHours"]; ok {
		if i, ok2 := parseHours(v); ok2 {
			expires = i
		}
	}
	// Enforce 1..168 hours to avoid immediately-expired tokens
	if expires < 1 || expires > 168 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "expiresInHours must be between 1 and 168"})
		return
	}

	// The credential must exist before we sign a link to it.
	if _, err := h.credentials.GetCredential(r.Context(), tokenID); err != nil {
		h.logger.Info("share link refused", "token_id", tokenID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Credential not found or invalid"})
		return
	}

	exp := time.Now().Add(time.Duration(expires) * time.Hour)
	claims := shareClaims{
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.shareSecret)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to sign share token"})
		return
	}

	url := fmt.Sprintf("%s/verify/%s?token=%s", h.frontendBaseURL, tokenID, signed)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"shareableUrl": url,
		"validUntil":   exp.UTC().Format(time.RFC3339),
	})
}

// ShareInfo handles GET /api/credentials/info/{tokenId}?token=...
func (h *Handler) ShareInfo(w http.ResponseWriter, r *http.Request) {
	if len(h.shareSecret) == 0 {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "server misconfigured"})
		return
	}
	tokenID := chi.URLParam(r, "tokenId")
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "This verification link is invalid or has expired."})
		return
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &shareClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return h.shareSecret, nil
	})
	if err != nil || !parsed.Valid {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "This verification link is invalid or has expired."})
		return
	}
	claims, ok := parsed.Claims.(*shareClaims)
	if !ok || claims.TokenID == "" || claims.ExpiresAt == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "This verification link is invalid or has expired."})
		return
	}
	if claims.TokenID != tokenID {
		writeJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden: token id mismatch"})
		return
	}

	view, err := h.credentials.GetCredential(r.Context(), tokenID)
	if err != nil {
		h.logger.Info("shared credential lookup failed", "token_id", tokenID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Credential not found or invalid"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"credential": view,
		"validUntil": claims.ExpiresAt.Time.UTC().Format(time.RFC3339),
	})
}

// parseHours accepts a JSON number, numeric string, or json.Number.
func parseHours(x any) (int, bool) {
	switch t := x.(type) {
	case float64:
		return int(t), true
	case json.Number:
		if i, err := strconv.Atoi(t.String()); err == nil {
			return i, true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return i, true
		}
	}
	return 0, false
}
