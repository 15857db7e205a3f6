package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"credchain/internal/credential"
	"credchain/internal/profile"
)

// Handler carries the service dependencies for every route. Stores are
// passed in explicitly; there are no package-level globals.
type Handler struct {
	credentials *credential.Service
	profiles    *profile.Store
	logger      *slog.Logger

	shareSecret     []byte
	frontendBaseURL string
}

func New(credentials *credential.Service, profiles *profile.Store, shareSecret []byte, frontendBaseURL string, logger *slog.Logger) *Handler {
	return &Handler{
		credentials:     credentials,
		profiles:        profiles,
		logger:          logger,
		shareSecret:     shareSecret,
		frontendBaseURL: strings.TrimRight(frontendBaseURL, "/"),
	}
}

// MintCredential handles POST /api/credentials/mint.
func (h *Handler) MintCredential(w http.ResponseWriter, r *http.Request) {
	var req credential.MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	out, err := h.credentials.Mint(r.Context(), req)
	if err != nil {
		h.logger.Error("mint failed", "issuer", req.UniversityAddress, "error", err)
		writeError(w, err)
		return
	}

	if out.Degraded {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"transactionHash": out.TxHash,
			"degraded":        true,
			"message":         "credential minted but the token id could not be read from the receipt; keep the transaction hash",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"tokenId":         json.Number(out.TokenID),
		"transactionHash": out.TxHash,
	})
}

// VerifyCredential handles GET /api/credentials/verify/{tokenId}.
//
// Absent token, malformed id and ledger transport failure are deliberately
// collapsed into the same response the original frontend expects; the
// distinction survives in the logs.
func (h *Handler) VerifyCredential(w http.ResponseWriter, r *http.Request) {
	tokenID := chi.URLParam(r, "tokenId")

	view, err := h.credentials.GetCredential(r.Context(), tokenID)
	if err != nil {
		h.logger.Info("credential lookup failed", "token_id", tokenID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Credential not found or invalid"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"credential": view,
	})
}

// VerifyHash handles POST /api/credentials/verify-hash.
func (h *Handler) VerifyHash(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber() // keep large token ids exact instead of rounding through float64
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}
	tokenID, _ := stringField(body["tokenId"])
	hash, _ := body["degreeHash"].(string)

	isValid, err := h.credentials.VerifyHash(r.Context(), tokenID, hash)
	if err != nil {
		h.logger.Error("hash verification failed", "token_id", tokenID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"isValid": isValid,
	})
}

// AuthorizeUniversity handles POST /api/credentials/authorize-university.
func (h *Handler) AuthorizeUniversity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UniversityAddress string `json:"universityAddress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}
	if strings.TrimSpace(body.UniversityAddress) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "University address is required"})
		return
	}

	out, err := h.credentials.AuthorizeIssuer(r.Context(), body.UniversityAddress)
	if err != nil {
		h.logger.Error("authorization failed", "issuer", body.UniversityAddress, "error", err)
		writeError(w, err)
		return
	}

	if out.AlreadyAuthorized {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "University " + body.UniversityAddress + " is already authorized",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         "University " + body.UniversityAddress + " has been authorized",
		"transactionHash": out.TxHash,
	})
}

// stringField coerces a JSON value that frontends send as either a number or
// a string.
func stringField(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}
