package adaptor

import (
	"net/http"

	"cinema-reservation/internal/dto/request"
	"cinema-reservation/internal/usecase"
	"cinema-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler serves the admin setup endpoints and the customer lookup.
type CatalogHandler struct {
	service usecase.CatalogService
	log     *zap.Logger
}

func NewCatalogHandler(service usecase.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		log:     log.With(zap.String("handler", "catalog")),
	}
}

// CreateRoom handles POST /api/admin/rooms
func (h *CatalogHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	room, err := h.service.CreateRoom(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create room")
		return
	}

	utils.ResponseCreated(w, "Room created", room)
}

// CreateMovie handles POST /api/admin/movies
func (h *CatalogHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	var req request.CreateMovieRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	movie, err := h.service.CreateMovie(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create movie")
		return
	}

	utils.ResponseCreated(w, "Movie created", movie)
}

// CreateShowtime handles POST /api/admin/showtimes
func (h *CatalogHandler) CreateShowtime(w http.ResponseWriter, r *http.Request) {
	var req request.CreateShowtimeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	showtime, err := h.service.CreateShowtime(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create showtime")
		return
	}

	utils.ResponseCreated(w, "Showtime created", showtime)
}

// CreateCustomer handles POST /api/admin/customers
func (h *CatalogHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	customer, err := h.service.CreateCustomer(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create customer")
		return
	}

	utils.ResponseCreated(w, "Customer created", customer)
}

// GetCustomer handles GET /api/customers/{id}
func (h *CatalogHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.service.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get customer")
		return
	}

	utils.ResponseSuccess(w, "success", customer)
}
