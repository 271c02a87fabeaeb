package response

import (
	"time"

	"cinema-reservation/internal/data/entity"
)

type ReservationResponse struct {
	ID              string                   `json:"id"`
	Code            string                   `json:"code"`
	ShowtimeID      string                   `json:"showtime_id"`
	CustomerID      string                   `json:"customer_id"`
	OperatorID      *string                  `json:"operator_id,omitempty"`
	Kind            entity.ReservationKind   `json:"kind"`
	Status          entity.ReservationStatus `json:"status"`
	Subtotal        float64                  `json:"subtotal"`
	Discount        float64                  `json:"discount"`
	DiscountPercent float64                  `json:"discount_percent"`
	Total           float64                  `json:"total"`
	Tickets         int                      `json:"tickets,omitempty"`
	ExpiresAt       *time.Time               `json:"expires_at,omitempty"`
	ClosedBy        *string                  `json:"closed_by,omitempty"`
	ClosedAt        *time.Time               `json:"closed_at,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	LineItems       []LineItemResponse       `json:"line_items,omitempty"`
}

type LineItemResponse struct {
	ID        string  `json:"id"`
	SeatID    string  `json:"seat_id"`
	SeatLabel string  `json:"seat_label,omitempty"`
	UnitPrice float64 `json:"unit_price"`
}

type SweepResponse struct {
	Cancelled int `json:"cancelled"`
}

func ReservationToResponse(res *entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:              res.ID.String(),
		Code:            res.Code,
		ShowtimeID:      res.ShowtimeID.String(),
		CustomerID:      res.CustomerID.String(),
		OperatorID:      idString(res.OperatorID),
		Kind:            res.Kind,
		Status:          res.Status,
		Subtotal:        res.Subtotal,
		Discount:        res.Discount,
		DiscountPercent: res.DiscountPercent,
		Total:           res.Total,
		ExpiresAt:       res.ExpiresAt,
		ClosedBy:        idString(res.ClosedBy),
		ClosedAt:        res.ClosedAt,
		CreatedAt:       res.CreatedAt,
	}
}

// LineItemToResponse attaches the seat label when the seat is known.
func LineItemToResponse(item *entity.LineItem, seat *entity.Seat) LineItemResponse {
	resp := LineItemResponse{
		ID:        item.ID.String(),
		SeatID:    item.SeatID.String(),
		UnitPrice: item.UnitPrice,
	}
	if seat != nil {
		resp.SeatLabel = seat.Label()
	}
	return resp
}
