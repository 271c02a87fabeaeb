package response

import "cinema-reservation/internal/data/entity"

type SeatState string

const (
	SeatStateFree SeatState = "free"
	SeatStateHeld SeatState = "held"
	SeatStateSold SeatState = "sold"
)

type AvailabilityResponse struct {
	Showtime        ShowtimeResponse           `json:"showtime"`
	Room            RoomSummary                `json:"room"`
	Seats           []SeatAvailabilityResponse `json:"seats"`
	FreeCount       int                        `json:"free_count"`
	HeldCount       int                        `json:"held_count"`
	SoldCount       int                        `json:"sold_count"`
	SoldOrHeldCount int                        `json:"sold_or_held_count"`
	TotalCount      int                        `json:"total_count"`
}

type SeatAvailabilityResponse struct {
	SeatID string           `json:"seat_id"`
	Label  string           `json:"label"`
	Block  string           `json:"block"`
	Row    string           `json:"row"`
	Number int              `json:"number"`
	Class  entity.SeatClass `json:"class"`
	Status SeatState        `json:"status"`
	Free   bool             `json:"free"`
}
