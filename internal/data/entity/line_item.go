package entity

import "github.com/google/uuid"

// LineItem allocates one seat of a showtime to a reservation. Never mutated after insert.
type LineItem struct {
	BaseSimple
	ReservationID uuid.UUID `db:"reservation_id"`
	ShowtimeID    uuid.UUID `db:"showtime_id"`
	SeatID        uuid.UUID `db:"seat_id"`
	UnitPrice     float64   `db:"unit_price"`
}

// SeatOccupancy is a seat taken by an active reservation. Derived from line items, never stored.
type SeatOccupancy struct {
	SeatID        uuid.UUID
	ReservationID uuid.UUID
	Status        ReservationStatus
}
