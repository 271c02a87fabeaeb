package response

import (
	"time"

	"cinema-reservation/internal/data/entity"

	"github.com/google/uuid"
)

type RoomSummary struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Capacity int               `json:"capacity"`
	Status   entity.RoomStatus `json:"status"`
}

type RoomResponse struct {
	RoomSummary
	Seats []SeatResponse `json:"seats"`
}

type SeatResponse struct {
	ID     string           `json:"id"`
	Label  string           `json:"label"`
	Block  string           `json:"block"`
	Row    string           `json:"row"`
	Number int              `json:"number"`
	Class  entity.SeatClass `json:"class"`
}

type MovieResponse struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       *string   `json:"description,omitempty"`
	DurationInMinutes int       `json:"duration_in_minutes"`
	CreatedAt         time.Time `json:"created_at"`
}

type ShowtimeResponse struct {
	ID         string    `json:"id"`
	MovieID    string    `json:"movie_id"`
	MovieTitle string    `json:"movie_title,omitempty"`
	RoomID     string    `json:"room_id"`
	RoomName   string    `json:"room_name,omitempty"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	BasePrice  float64   `json:"base_price"`
}

type CustomerResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Email     *string             `json:"email,omitempty"`
	Phone     *string             `json:"phone,omitempty"`
	Type      entity.CustomerType `json:"type"`
	CreatedAt time.Time           `json:"created_at"`
}

// Helper converters
func RoomToSummary(room *entity.Room) RoomSummary {
	return RoomSummary{
		ID:       room.ID.String(),
		Name:     room.Name,
		Capacity: room.Capacity,
		Status:   room.Status,
	}
}

func SeatToResponse(seat *entity.Seat) SeatResponse {
	return SeatResponse{
		ID:     seat.ID.String(),
		Label:  seat.Label(),
		Block:  seat.Block,
		Row:    seat.Row,
		Number: seat.Number,
		Class:  seat.Class,
	}
}

func MovieToResponse(movie *entity.Movie) MovieResponse {
	return MovieResponse{
		ID:                movie.ID.String(),
		Title:             movie.Title,
		Description:       movie.Description,
		DurationInMinutes: movie.DurationInMinutes,
		CreatedAt:         movie.CreatedAt,
	}
}

// ShowtimeToResponse fills names from movie and room when given.
func ShowtimeToResponse(st *entity.Showtime, movie *entity.Movie, room *entity.Room) ShowtimeResponse {
	resp := ShowtimeResponse{
		ID:        st.ID.String(),
		MovieID:   st.MovieID.String(),
		RoomID:    st.RoomID.String(),
		StartsAt:  st.StartsAt,
		EndsAt:    st.EndsAt,
		BasePrice: st.BasePrice,
	}
	if movie != nil {
		resp.MovieTitle = movie.Title
	}
	if room != nil {
		resp.RoomName = room.Name
	}
	return resp
}

func CustomerToResponse(c *entity.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Type:      c.Type,
		CreatedAt: c.CreatedAt,
	}
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
