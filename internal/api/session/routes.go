package session

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers session routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/session", h.GetSession)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.ListDocuments)
		r.Post("/", h.LoadDocuments)
		r.Delete("/", h.ClearDocuments)
	})

	r.Post("/ask", h.Ask)

	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.GetHistory)
		r.Delete("/", h.ClearHistory)
	})
}
