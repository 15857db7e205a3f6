package router

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credchain/internal/handlers"
	"credchain/internal/middleware"
)

// New builds the HTTP route table.
func New(h *handlers.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)
	r.Use(middleware.Logging(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})

	r.Route("/api/credentials", func(r chi.Router) {
		r.Post("/mint", h.MintCredential)
		r.Get("/verify/{tokenId}", h.VerifyCredential)
		r.Post("/verify-hash", h.VerifyHash)
		r.Post("/authorize-university", h.AuthorizeUniversity)
		r.Post("/share", h.CreateShareLink)
		r.Get("/info/{tokenId}", h.ShareInfo)
		r.Get("/{tokenId}/qrcode", h.CredentialQRCode)
	})

	r.Route("/api/profile", func(r chi.Router) {
		r.Post("/update", h.UpdateProfile)
		r.Get("/{walletAddress}", h.GetProfile)
	})

	return r
}
