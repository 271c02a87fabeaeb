package usecase

import (
	"errors"
	"fmt"
	"strings"

	"cinema-reservation/internal/data/entity"
	"cinema-reservation/pkg/utils"

	"github.com/google/uuid"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrExpired      = errors.New("reservation expired")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

var (
	ErrEmptySelection      = fmt.Errorf("%w: at least one seat must be selected", ErrValidation)
	ErrShowtimeNotFound    = fmt.Errorf("showtime %w", ErrNotFound)
	ErrCustomerNotFound    = fmt.Errorf("customer %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
	ErrRoomNotFound        = fmt.Errorf("room %w", ErrNotFound)
	ErrMovieNotFound       = fmt.Errorf("movie %w", ErrNotFound)
	ErrShowtimeOverlap     = fmt.Errorf("%w: room already has a showtime in that window", ErrConflict)
	ErrInvalidCredentials  = fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
)

// ValidationError carries per-field messages from request validation.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation, utils.FormatValidationErrors(e.Fields))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// SeatNotFoundError lists requested seats that do not exist in the showtime's room.
type SeatNotFoundError struct {
	SeatIDs []uuid.UUID
}

func (e *SeatNotFoundError) Error() string {
	return fmt.Sprintf("seats not found in showtime room: %s", joinIDs(e.SeatIDs))
}

func (e *SeatNotFoundError) Unwrap() error { return ErrNotFound }

// SeatConflictError lists requested seats already held or sold for the showtime.
type SeatConflictError struct {
	SeatIDs []uuid.UUID
	Labels  []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Labels, ", "))
}

func (e *SeatConflictError) Unwrap() error { return ErrConflict }

// InvalidStateError rejects a transition from the reservation's current state.
type InvalidStateError struct {
	ReservationID uuid.UUID
	State         entity.ReservationStatus
	Action        string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s reservation %s in state %s", e.Action, e.ReservationID, e.State)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}
