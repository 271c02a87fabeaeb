package wire

import (
	"net/http"

	"cinema-reservation/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

type middlewareFunc = func(http.Handler) http.Handler

func wireReservation(r chi.Router, h *adaptor.ReservationHandler, auth, staff, admin middlewareFunc) {
	// ==================== STAFF ROUTES (admin, cashier) ====================
	r.Group(func(r chi.Router) {
		r.Use(auth, staff)

		r.Post("/api/reservations", h.Reserve)
		r.Get("/api/reservations", h.ListReservations)
		r.Get("/api/reservations/{id}", h.GetReservation)
		r.Put("/api/reservations/{id}/confirm", h.Confirm)
		r.Put("/api/reservations/{id}/cancel", h.Cancel)

		// POST /api/sales - sell seats at the counter without a hold
		r.Post("/api/sales", h.DirectSale)
	})

	// ==================== ADMIN ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(auth, admin)

		// POST /api/admin/reservations/sweep - cancel one batch of expired holds now
		r.Post("/api/admin/reservations/sweep", h.SweepExpired)
	})
}
