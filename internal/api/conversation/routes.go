package conversation

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers conversation routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", h.ListConversations)
		r.Get("/{id}/history", h.GetHistory)
		r.Get("/{id}/export", h.ExportConversation)
		r.Post("/{id}/clear", h.ClearConversation)
		r.Delete("/{id}", h.DeleteConversation)
	})
}
