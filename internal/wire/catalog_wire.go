package wire

import (
	"cinema-reservation/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireCatalog(r chi.Router, h *adaptor.CatalogHandler, auth, staff, admin middlewareFunc) {
	r.Group(func(r chi.Router) {
		r.Use(auth, staff)

		r.Get("/api/customers/{id}", h.GetCustomer)
	})

	// ==================== ADMIN ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(auth, admin)

		r.Post("/api/admin/rooms", h.CreateRoom)
		r.Post("/api/admin/movies", h.CreateMovie)
		r.Post("/api/admin/showtimes", h.CreateShowtime)
		r.Post("/api/admin/customers", h.CreateCustomer)
	})
}
