package entity

import (
	"time"

	"github.com/google/uuid"
)

type Showtime struct {
	Base
	MovieID   uuid.UUID `db:"movie_id"`
	RoomID    uuid.UUID `db:"room_id"`
	StartsAt  time.Time `db:"starts_at"`
	EndsAt    time.Time `db:"ends_at"` // start + runtime + cleanup buffer
	BasePrice float64   `db:"base_price"`
}

// Overlaps reports whether the half-open windows [StartsAt, EndsAt) intersect.
func (s *Showtime) Overlaps(startsAt, endsAt time.Time) bool {
	return s.StartsAt.Before(endsAt) && startsAt.Before(s.EndsAt)
}
