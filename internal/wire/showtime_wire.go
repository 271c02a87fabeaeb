package wire

import (
	"cinema-reservation/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireShowtime(r chi.Router, showtimeHandler *adaptor.ShowtimeHandler) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/showtimes/{id}", showtimeHandler.GetShowtime)
	r.Get("/api/showtimes/{id}/availability", showtimeHandler.GetAvailability)
}
