package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"cinema-reservation/internal/usecase"
	"cinema-reservation/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	Auth        *AuthHandler
	Reservation *ReservationHandler
	Showtime    *ShowtimeHandler
	Catalog     *CatalogHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(service.Auth, log),
		Reservation: NewReservationHandler(service.Reservation, log),
		Showtime:    NewShowtimeHandler(service.Catalog, service.Availability, log),
		Catalog:     NewCatalogHandler(service.Catalog, log),
	}
}

// decodeJSON writes a 400 and returns false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// writeServiceError maps usecase errors onto the JSON envelope.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var (
		validationErr *usecase.ValidationError
		conflictErr   *usecase.SeatConflictError
		stateErr      *usecase.InvalidStateError
		missingErr    *usecase.SeatNotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, "Validation failed", validationErr.Fields)

	case errors.Is(err, usecase.ErrValidation):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrUnauthorized):
		log.Warn(operation+" failed - unauthorized", zap.Error(err))
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	case errors.As(err, &missingErr):
		log.Warn(operation+" failed - seats not found", zap.Error(err))
		utils.ResponseJSON(w, http.StatusNotFound, false, err.Error(), nil,
			map[string]any{"seat_ids": idStrings(missingErr.SeatIDs)})

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.As(err, &conflictErr):
		log.Info(operation+" failed - seats unavailable", zap.Error(err))
		utils.ResponseConflict(w, err.Error(), map[string]any{
			"seat_ids": idStrings(conflictErr.SeatIDs),
			"seats":    conflictErr.Labels,
		})

	case errors.As(err, &stateErr):
		log.Warn(operation+" failed - invalid state", zap.Error(err))
		utils.ResponseConflict(w, err.Error(), map[string]any{"state": stateErr.State})

	case errors.Is(err, usecase.ErrInvalidState), errors.Is(err, usecase.ErrConflict):
		log.Warn(operation+" failed - conflict", zap.Error(err))
		utils.ResponseConflict(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrExpired):
		log.Info(operation+" failed - expired", zap.Error(err))
		utils.ResponseGone(w, err.Error())

	default:
		log.Error(operation+" failed",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
