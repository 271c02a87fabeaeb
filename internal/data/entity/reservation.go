package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusHeld      ReservationStatus = "held"
	ReservationStatusSold      ReservationStatus = "sold"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// IsActive reports whether line items under this status occupy their seats.
func (s ReservationStatus) IsActive() bool {
	return s == ReservationStatusHeld || s == ReservationStatusSold
}

type ReservationKind string

const (
	ReservationKindHold       ReservationKind = "reservation"
	ReservationKindDirectSale ReservationKind = "direct_sale"
)

// Reservation is one customer transaction against one showtime. ExpiresAt is set only while held.
type Reservation struct {
	BaseNoDelete
	Code            string            `db:"code"`
	ShowtimeID      uuid.UUID         `db:"showtime_id"`
	CustomerID      uuid.UUID         `db:"customer_id"`
	OperatorID      *uuid.UUID        `db:"operator_id"`
	Kind            ReservationKind   `db:"kind"`
	Status          ReservationStatus `db:"status"`
	Subtotal        float64           `db:"subtotal"`
	Discount        float64           `db:"discount"`
	DiscountPercent float64           `db:"discount_percent"`
	Total           float64           `db:"total"`
	ExpiresAt       *time.Time        `db:"expires_at"`
	ClosedBy        *uuid.UUID        `db:"closed_by"`
	ClosedAt        *time.Time        `db:"closed_at"`
}

// ReservationFilter narrows ledger history queries. Zero values match everything.
type ReservationFilter struct {
	ShowtimeID *uuid.UUID
	CustomerID *uuid.UUID
	OperatorID *uuid.UUID
	Status     *ReservationStatus
	Kind       *ReservationKind
	From       *time.Time // inclusive
	To         *time.Time // exclusive
}
