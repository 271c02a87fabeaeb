package adaptor

import (
	"net/http"

	"cinema-reservation/internal/usecase"
	"cinema-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ShowtimeHandler struct {
	catalog      usecase.CatalogService
	availability usecase.AvailabilityService
	log          *zap.Logger
}

func NewShowtimeHandler(catalog usecase.CatalogService, availability usecase.AvailabilityService, log *zap.Logger) *ShowtimeHandler {
	return &ShowtimeHandler{
		catalog:      catalog,
		availability: availability,
		log:          log.With(zap.String("handler", "showtime")),
	}
}

// GetShowtime handles GET /api/showtimes/{id} (public)
func (h *ShowtimeHandler) GetShowtime(w http.ResponseWriter, r *http.Request) {
	showtime, err := h.catalog.GetShowtime(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get showtime")
		return
	}

	utils.ResponseSuccess(w, "success", showtime)
}

// GetAvailability handles GET /api/showtimes/{id}/availability (public)
func (h *ShowtimeHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	availability, err := h.availability.GetAvailability(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get availability")
		return
	}

	utils.ResponseSuccess(w, "success", availability)
}
