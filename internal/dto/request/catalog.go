package request

import "time"

// CreateRoomRequest provisions a room and its seat grid. Zero values take the house layout:
// blocks B1 and B2, rows A..M, ten seats per row.
type CreateRoomRequest struct {
	Name            string   `json:"name" validate:"required,min=1,max=100"`
	Blocks          []string `json:"blocks,omitempty" validate:"omitempty,unique,dive,required,max=10"`
	RowCount        int      `json:"row_count,omitempty" validate:"omitempty,min=1,max=26"`
	SeatsPerRow     int      `json:"seats_per_row,omitempty" validate:"omitempty,min=1,max=50"`
	PremiumRows     []string `json:"premium_rows,omitempty" validate:"omitempty,dive,len=1"`
	AccessibleSeats []string `json:"accessible_seats,omitempty" validate:"omitempty,dive,required"`
	Status          string   `json:"status,omitempty" validate:"omitempty,oneof=active inactive maintenance"`
}

type CreateMovieRequest struct {
	Title             string  `json:"title" validate:"required,max=255"`
	Description       *string `json:"description,omitempty"`
	DurationInMinutes int     `json:"duration_in_minutes" validate:"required,min=1,max=600"`
}

type CreateShowtimeRequest struct {
	MovieID   string    `json:"movie_id" validate:"required,uuid"`
	RoomID    string    `json:"room_id" validate:"required,uuid"`
	StartsAt  time.Time `json:"starts_at" validate:"required"`
	BasePrice float64   `json:"base_price" validate:"min=0"`
}

type CreateCustomerRequest struct {
	Name  string  `json:"name" validate:"required,max=150"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,min=6,max=30"`
	Type  string  `json:"type,omitempty" validate:"omitempty,oneof=normal vip"`
}
