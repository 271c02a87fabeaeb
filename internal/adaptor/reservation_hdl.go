package adaptor

import (
	"net/http"

	"cinema-reservation/internal/dto/request"
	"cinema-reservation/internal/dto/response"
	"cinema-reservation/internal/usecase"
	"cinema-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReservationHandler struct {
	service usecase.ReservationService
	log     *zap.Logger
}

func NewReservationHandler(service usecase.ReservationService, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log.With(zap.String("handler", "reservation")),
	}
}

// Reserve handles POST /api/reservations
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req request.ReserveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reservation, err := h.service.Reserve(r.Context(), utils.OperatorFromContext(r.Context()), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "reserve")
		return
	}

	utils.ResponseCreated(w, "Seats held", reservation)
}

// DirectSale handles POST /api/sales
func (h *ReservationHandler) DirectSale(w http.ResponseWriter, r *http.Request) {
	var req request.DirectSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reservation, err := h.service.DirectSale(r.Context(), utils.OperatorFromContext(r.Context()), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "direct sale")
		return
	}

	utils.ResponseCreated(w, "Seats sold", reservation)
}

// Confirm handles PUT /api/reservations/{id}/confirm
func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	reservation, err := h.service.Confirm(r.Context(), utils.OperatorFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, h.log, err, "confirm reservation")
		return
	}

	utils.ResponseSuccess(w, "Reservation confirmed", reservation)
}

// Cancel handles PUT /api/reservations/{id}/cancel
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	reservation, err := h.service.Cancel(r.Context(), utils.OperatorFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, h.log, err, "cancel reservation")
		return
	}

	utils.ResponseSuccess(w, "Reservation cancelled", reservation)
}

// GetReservation handles GET /api/reservations/{id}
func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.service.GetReservation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get reservation")
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}

// ListReservations handles GET /api/reservations
func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.ReservationFilterRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 20),
		},
		ShowtimeID: query.Get("showtime_id"),
		CustomerID: query.Get("customer_id"),
		OperatorID: query.Get("operator_id"),
		Status:     query.Get("status"),
		Kind:       query.Get("kind"),
		From:       query.Get("from"),
		To:         query.Get("to"),
	}

	reservations, err := h.service.ListReservations(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "list reservations")
		return
	}

	utils.ResponseSuccess(w, "success", reservations)
}

// SweepExpired handles POST /api/admin/reservations/sweep
func (h *ReservationHandler) SweepExpired(w http.ResponseWriter, r *http.Request) {
	cancelled, err := h.service.SweepExpired(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "sweep expired holds")
		return
	}

	utils.ResponseSuccess(w, "success", response.SweepResponse{Cancelled: cancelled})
}
