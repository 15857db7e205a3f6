package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
)

// CredentialQRCode handles GET /api/credentials/{tokenId}/qrcode and returns
// a PNG encoding the public verification URL for the credential.
func (h *Handler) CredentialQRCode(w http.ResponseWriter, r *http.Request) {
	tokenID := chi.URLParam(r, "tokenId")

	// Verify the credential exists so we never hand out QR codes for
	// tokens that were never minted.
	if _, err := h.credentials.GetCredential(r.Context(), tokenID); err != nil {
		h.logger.Info("qr code refused", "token_id", tokenID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Credential not found or invalid"})
		return
	}

	png, err := qrcode.Encode(h.frontendBaseURL+"/verify/"+tokenID, qrcode.Medium, 256)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to generate QR code"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
